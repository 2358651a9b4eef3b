package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/gazette/internal/navigation"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Recetas</title>
  <link>https://example.com</link>
  <description>Cocina</description>
  <item>
    <title>Gazpacho andaluz</title>
    <link>https://example.com/gazpacho</link>
    <guid>gazpacho-1</guid>
    <description>Receta de gazpacho fresco para el verano.</description>
    <pubDate>Mon, 01 Apr 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Tortilla de patatas</title>
    <link>https://example.com/tortilla</link>
    <guid>tortilla-1</guid>
    <description>Con cebolla, siempre.</description>
    <pubDate>Tue, 02 Apr 2024 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

// runCLI executes the root command with args and returns what it printed.
// Flag globals are reset first since cobra keeps them between runs.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, dbPath, link = "", "", ""
	offline, quiet = false, false
	serveAddr = ""
	importCategory, importPermissive, importTimeout = "", false, 2*time.Minute
	searchLimit = 10

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GAZETTE_LOG_LEVEL", "off")
	return home
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "gazette dev") {
		t.Errorf("Expected version output to contain 'gazette dev', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/gazette") {
		t.Errorf("Expected version output to contain the module path, got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	isolateHome(t)
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := runCLI(t, "generate-config", "--config", target)
	if err != nil {
		t.Fatalf("generate-config: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output should name %s, got: %s", target, out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "base_url") {
		t.Errorf("generated config is missing the api section:\n%s", data)
	}
}

func TestGenerateConfigDefaultsToHome(t *testing.T) {
	home := isolateHome(t)

	if _, err := runCLI(t, "generate-config"); err != nil {
		t.Fatalf("generate-config: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "gazette", "config.toml")); err != nil {
		t.Errorf("expected config under HOME: %v", err)
	}
}

func TestInitialLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", navigation.HomeLocation},
		{"abc", navigation.ArticleLocation("abc")},
		{"https://blog.example.com/?articleId=xyz", "https://blog.example.com/?articleId=xyz"},
		{"?articleId=q1", "?articleId=q1"},
	}
	for _, tt := range tests {
		if got := initialLocation(tt.in); got != tt.want {
			t.Errorf("initialLocation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImportOfflineThenSearch(t *testing.T) {
	isolateHome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	db := filepath.Join(t.TempDir(), "cache.db")

	out, err := runCLI(t, "import", "--offline", "--db", db, "--allow-local", "--category", "Cocina", srv.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 2 articles") {
		t.Errorf("unexpected import output: %s", out)
	}

	out, err = runCLI(t, "search", "--db", db, "gazpacho")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "Gazpacho andaluz") {
		t.Errorf("search did not find the imported article: %s", out)
	}
	if strings.Contains(out, "Tortilla") {
		t.Errorf("search returned an unrelated article: %s", out)
	}
}

func TestSearchEmptyCache(t *testing.T) {
	isolateHome(t)
	db := filepath.Join(t.TempDir(), "cache.db")

	out, err := runCLI(t, "search", "--db", db, "anything")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "No results") {
		t.Errorf("expected no results, got: %s", out)
	}
}

func TestImportRejectsLocalFeedByDefault(t *testing.T) {
	isolateHome(t)
	db := filepath.Join(t.TempDir(), "cache.db")

	_, err := runCLI(t, "import", "--offline", "--db", db, "http://127.0.0.1:1/feed.xml")
	if err == nil {
		t.Fatal("expected local feed host to be rejected")
	}
}

func TestImportRequiresURL(t *testing.T) {
	isolateHome(t)
	if _, err := runCLI(t, "import"); err == nil {
		t.Fatal("expected an error without a feed url")
	}
}
