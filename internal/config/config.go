package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Feed       FeedConfig       `mapstructure:"feed"`
	UI         UIConfig         `mapstructure:"ui"`
	Media      MediaConfig      `mapstructure:"media"`
	Keys       KeyConfig        `mapstructure:"keys"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Log        LogConfig        `mapstructure:"log"`
}

// APIConfig points the reader at the blog functions.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	UserAgent string        `mapstructure:"user_agent"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
	ServerPath  string        `mapstructure:"server_path"`
}

// ServerConfig is used by `gazette serve`.
type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type NavigationConfig struct {
	HomeDelay    time.Duration `mapstructure:"home_delay"`
	ArticleDelay time.Duration `mapstructure:"article_delay"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

// FeedConfig controls `gazette import`.
type FeedConfig struct {
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	DefaultCategory string        `mapstructure:"default_category"`
	MaxItems        int           `mapstructure:"max_items"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type ArticleConfig struct {
	MaxExcerptLength int `mapstructure:"max_excerpt_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type MediaConfig struct {
	Darwin        MediaPlayers `mapstructure:"darwin"`
	Linux         MediaPlayers `mapstructure:"linux"`
	Windows       MediaPlayers `mapstructure:"windows"`
	DefaultOpener string       `mapstructure:"default_opener"`
}

type MediaPlayers struct {
	Video []string `mapstructure:"video"`
	Image []string `mapstructure:"image"`
	Audio []string `mapstructure:"audio"`
	PDF   []string `mapstructure:"pdf"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

// KeyBindings holds plain keys, except Search, Admin, OpenMedia and Refresh
// which are pressed together with the modifier.
type KeyBindings struct {
	Quit           string `mapstructure:"quit"`
	Search         string `mapstructure:"search"`
	Admin          string `mapstructure:"admin"`
	OpenMedia      string `mapstructure:"open_media"`
	Refresh        string `mapstructure:"refresh"`
	Home           string `mapstructure:"home"`
	Archive        string `mapstructure:"archive"`
	Category       string `mapstructure:"category"`
	DateFilter     string `mapstructure:"date_filter"`
	NextPage       string `mapstructure:"next_page"`
	PrevPage       string `mapstructure:"prev_page"`
	HistoryBack    string `mapstructure:"history_back"`
	HistoryForward string `mapstructure:"history_forward"`
	Back           string `mapstructure:"back"`
	Help           string `mapstructure:"help"`
}

// AdminConfig gates the admin console behind a PIN. It is a convenience
// lock, not authentication.
type AdminConfig struct {
	PIN string `mapstructure:"pin"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".gazette")

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8888/.netlify/functions",
			Timeout:   15 * time.Second,
			RateLimit: 5,
			Burst:     10,
			UserAgent: "gazette/1.0 (https://github.com/pders01/gazette)",
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "cache.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
			ServerPath:  filepath.Join(dataDir, "blog.sqlite"),
		},
		Server: ServerConfig{
			Addr:   "127.0.0.1:8888",
			Prefix: "/.netlify/functions",
		},
		Navigation: NavigationConfig{
			HomeDelay:    500 * time.Millisecond,
			ArticleDelay: 600 * time.Millisecond,
			HistoryLimit: 256,
		},
		Feed: FeedConfig{
			HTTPTimeout:     30 * time.Second,
			UserAgent:       "gazette/1.0 (https://github.com/pders01/gazette)",
			DefaultCategory: "General",
			MaxItems:        50,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Article: ArticleConfig{
				MaxExcerptLength: 140,
				WordWrapMaxWidth: 100,
				WordWrapMinWidth: 40,
			},
		},
		Media: MediaConfig{
			Darwin: MediaPlayers{
				Video: []string{"iina", "mpv", "vlc"},
				Image: []string{"preview", "open"},
				Audio: []string{"mpv", "vlc", "open"},
				PDF:   []string{"preview", "open"},
			},
			Linux: MediaPlayers{
				Video: []string{"mpv", "vlc", "mplayer"},
				Image: []string{"sxiv", "feh", "eog", "xdg-open"},
				Audio: []string{"mpv", "vlc", "mplayer"},
				PDF:   []string{"zathura", "evince", "xdg-open"},
			},
			Windows: MediaPlayers{
				Video: []string{"mpv", "vlc"},
				Image: []string{"start"},
				Audio: []string{"mpv", "vlc"},
				PDF:   []string{"start"},
			},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:           "q",
				Search:         "s",
				Admin:          "a",
				OpenMedia:      "o",
				Refresh:        "r",
				Home:           "h",
				Archive:        "a",
				Category:       "c",
				DateFilter:     "d",
				NextPage:       "n",
				PrevPage:       "p",
				HistoryBack:    "[",
				HistoryForward: "]",
				Back:           "esc",
				Help:           "?",
			},
		},
		Admin: AdminConfig{
			PIN: "1321",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "gazette.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// settings flattens cfg into dotted viper keys. Durations become strings so
// the written TOML stays readable.
func (c *Config) settings() map[string]any {
	players := func(p MediaPlayers) map[string]any {
		return map[string]any{"video": p.Video, "image": p.Image, "audio": p.Audio, "pdf": p.PDF}
	}
	b := c.Keys.Bindings

	return map[string]any{
		"api.base_url":   c.API.BaseURL,
		"api.timeout":    c.API.Timeout.String(),
		"api.rate_limit": c.API.RateLimit,
		"api.burst":      c.API.Burst,
		"api.user_agent": c.API.UserAgent,

		"database.path":         c.Database.Path,
		"database.timeout":      c.Database.Timeout.String(),
		"database.search_index": c.Database.SearchIndex,
		"database.server_path":  c.Database.ServerPath,

		"server.addr":   c.Server.Addr,
		"server.prefix": c.Server.Prefix,

		"navigation.home_delay":    c.Navigation.HomeDelay.String(),
		"navigation.article_delay": c.Navigation.ArticleDelay.String(),
		"navigation.history_limit": c.Navigation.HistoryLimit,

		"feed.http_timeout":     c.Feed.HTTPTimeout.String(),
		"feed.user_agent":       c.Feed.UserAgent,
		"feed.default_category": c.Feed.DefaultCategory,
		"feed.max_items":        c.Feed.MaxItems,

		"ui.colors.primary":    c.UI.Colors.Primary,
		"ui.colors.secondary":  c.UI.Colors.Secondary,
		"ui.colors.accent":     c.UI.Colors.Accent,
		"ui.colors.background": c.UI.Colors.Background,
		"ui.colors.surface":    c.UI.Colors.Surface,
		"ui.colors.text":       c.UI.Colors.Text,
		"ui.colors.muted":      c.UI.Colors.Muted,
		"ui.colors.error":      c.UI.Colors.Error,
		"ui.colors.success":    c.UI.Colors.Success,

		"ui.article.max_excerpt_length":  c.UI.Article.MaxExcerptLength,
		"ui.article.word_wrap_max_width": c.UI.Article.WordWrapMaxWidth,
		"ui.article.word_wrap_min_width": c.UI.Article.WordWrapMinWidth,

		"media.darwin":         players(c.Media.Darwin),
		"media.linux":          players(c.Media.Linux),
		"media.windows":        players(c.Media.Windows),
		"media.default_opener": c.Media.DefaultOpener,

		"keys.modifier":                 c.Keys.Modifier,
		"keys.bindings.quit":            b.Quit,
		"keys.bindings.search":          b.Search,
		"keys.bindings.admin":           b.Admin,
		"keys.bindings.open_media":      b.OpenMedia,
		"keys.bindings.refresh":         b.Refresh,
		"keys.bindings.home":            b.Home,
		"keys.bindings.archive":         b.Archive,
		"keys.bindings.category":        b.Category,
		"keys.bindings.date_filter":     b.DateFilter,
		"keys.bindings.next_page":       b.NextPage,
		"keys.bindings.prev_page":       b.PrevPage,
		"keys.bindings.history_back":    b.HistoryBack,
		"keys.bindings.history_forward": b.HistoryForward,
		"keys.bindings.back":            b.Back,
		"keys.bindings.help":            b.Help,

		"admin.pin": c.Admin.PIN,

		"log.level": c.Log.Level,
		"log.file":  c.Log.File,
	}
}

// DefaultPath is where Load looks when no explicit file is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "gazette", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range defaultConfig().settings() {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GAZETTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" || path == ":memory:" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Database.ServerPath = expandPath(cfg.Database.ServerPath)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()
	for key, value := range config.settings() {
		v.Set(key, value)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
