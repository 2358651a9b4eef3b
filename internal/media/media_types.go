package media

import (
	_ "embed"
	"net/url"
	"path"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed media_types.toml
var mediaTypesTOML []byte

type TypeConfig struct {
	Extensions  []string `toml:"extensions"`
	URLPatterns []string `toml:"url_patterns"`
}

type TypesConfig struct {
	Video     TypeConfig                `toml:"video"`
	Audio     TypeConfig                `toml:"audio"`
	Image     TypeConfig                `toml:"image"`
	PDF       TypeConfig                `toml:"pdf"`
	Platforms map[string]PlatformConfig `toml:"platforms"`
}

type PlatformConfig struct {
	DefaultOpener string `toml:"default_opener"`
}

// TypeDetector classifies URLs by extension, then by known hosting patterns.
type TypeDetector struct {
	config *TypesConfig
}

func NewTypeDetector() (*TypeDetector, error) {
	var config TypesConfig
	if err := toml.Unmarshal(mediaTypesTOML, &config); err != nil {
		return nil, err
	}
	return &TypeDetector{config: &config}, nil
}

func (d *TypeDetector) DetectType(rawURL string) Type {
	lower := strings.ToLower(strings.TrimSpace(rawURL))

	if ext := extension(lower); ext != "" {
		switch {
		case slices.Contains(d.config.Video.Extensions, ext):
			return TypeVideo
		case slices.Contains(d.config.Audio.Extensions, ext):
			return TypeAudio
		case slices.Contains(d.config.Image.Extensions, ext):
			return TypeImage
		case slices.Contains(d.config.PDF.Extensions, ext):
			return TypePDF
		}
	}

	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return TypeUnknown
	}
	switch {
	case matchesPattern(lower, d.config.Video.URLPatterns):
		return TypeVideo
	case matchesPattern(lower, d.config.Audio.URLPatterns):
		return TypeAudio
	case matchesPattern(lower, d.config.Image.URLPatterns):
		return TypeImage
	case matchesPattern(lower, d.config.PDF.URLPatterns):
		return TypePDF
	}
	return TypeUnknown
}

// DefaultOpener returns the platform's generic "open this" command.
func (d *TypeDetector) DefaultOpener() string {
	if p, ok := d.config.Platforms[runtime.GOOS]; ok && p.DefaultOpener != "" {
		return p.DefaultOpener
	}
	if p, ok := d.config.Platforms["fallback"]; ok && p.DefaultOpener != "" {
		return p.DefaultOpener
	}
	return "open"
}

// extension returns the lowercased file extension of the URL path, ignoring
// query and fragment.
func extension(lower string) string {
	p := lower
	if u, err := url.Parse(lower); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimPrefix(path.Ext(p), ".")
}

func matchesPattern(lower string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
