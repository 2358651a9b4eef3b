package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.BaseURL = "http://127.0.0.1:0/.netlify/functions"
	cfg.API.Timeout = 2 * time.Second
	cfg.API.RateLimit = 0
	cfg.API.UserAgent = "gazette-test/1.0"
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Navigation = NavigationConfig{
		HomeDelay:    time.Millisecond,
		ArticleDelay: time.Millisecond,
		HistoryLimit: 32,
	}
	cfg.Feed.HTTPTimeout = 5 * time.Second
	cfg.Feed.UserAgent = "gazette-test/1.0"
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
