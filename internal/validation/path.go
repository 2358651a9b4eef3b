package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath wraps every rejection made by PathValidator.
var ErrInvalidPath = errors.New("invalid path")

// MemoryPath is accepted as-is; the sqlite store treats it as in-memory.
const MemoryPath = ":memory:"

// PathValidator checks the data file locations given on the command line or
// in the config file (bolt cache, bleve index, sqlite database).
type PathValidator struct {
	MaxLength int
}

func NewPathValidator() *PathValidator {
	return &PathValidator{MaxLength: 4096}
}

// Clean expands a leading ~, rejects control characters and returns an
// absolute path.
func (v *PathValidator) Clean(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if path == MemoryPath {
		return path, nil
	}
	if v.MaxLength > 0 && len(path) > v.MaxLength {
		return "", fmt.Errorf("%w: path too long (max %d characters)", ErrInvalidPath, v.MaxLength)
	}
	for _, r := range path {
		if r == 0 || (r < 32 && r != '\t') {
			return "", fmt.Errorf("%w: path contains control characters", ErrInvalidPath)
		}
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return abs, nil
}

// PrepareFile cleans path and creates its parent directory. The file itself
// must not be a directory.
func (v *PathValidator) PrepareFile(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil || clean == MemoryPath {
		return clean, err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, clean)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", clean, err)
	}
	return clean, nil
}

// PrepareDir cleans a directory path and creates its parent. The bleve index
// creates the directory itself.
func (v *PathValidator) PrepareDir(path string) (string, error) {
	clean, err := v.Clean(path)
	if err != nil {
		return "", err
	}
	if clean == MemoryPath {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, clean)
	}
	if info, err := os.Stat(clean); err == nil && !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, clean)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", clean, err)
	}
	return clean, nil
}
