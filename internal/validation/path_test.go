package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClean(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	v := NewPathValidator()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "tilde", input: "~/.gazette/cache.db", want: filepath.Join(home, ".gazette", "cache.db")},
		{name: "bare tilde", input: "~", want: home},
		{name: "absolute", input: "/var/lib/gazette/blog.sqlite", want: "/var/lib/gazette/blog.sqlite"},
		{name: "cleans dots", input: "/var/lib/../lib/gazette.db", want: "/var/lib/gazette.db"},
		{name: "memory", input: ":memory:", want: ":memory:"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "null byte", input: "/tmp/a\x00b", wantErr: true},
		{name: "newline", input: "/tmp/a\nb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Clean(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Fatalf("Clean(%q) error = %v, want ErrInvalidPath", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClean_Relative(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got, err := NewPathValidator().Clean("data/cache.db")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q", got)
	}
}

func TestPrepareFile(t *testing.T) {
	dir := t.TempDir()
	v := NewPathValidator()

	path, err := v.PrepareFile(filepath.Join(dir, "nested", "deeper", "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("parent directory was not created: %v", err)
	}

	if _, err := v.PrepareFile(dir); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected directory to be rejected as a file, got %v", err)
	}

	if got, err := v.PrepareFile(MemoryPath); err != nil || got != MemoryPath {
		t.Errorf("PrepareFile(:memory:) = %q, %v", got, err)
	}
}

func TestPrepareDir(t *testing.T) {
	dir := t.TempDir()
	v := NewPathValidator()

	path, err := v.PrepareDir(filepath.Join(dir, "idx", "index.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("parent directory was not created: %v", err)
	}

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := v.PrepareDir(file); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected file to be rejected as a directory, got %v", err)
	}
	if _, err := v.PrepareDir(MemoryPath); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected :memory: to be rejected as a directory, got %v", err)
	}
}
