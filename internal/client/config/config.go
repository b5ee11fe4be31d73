package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds runtime settings for the blogctl client.
type Config struct {
	// ServerURL is the origin of the blog API, without a trailing slash.
	ServerURL string
	// TokenFile keeps the bearer token between invocations.
	TokenFile string
	// CacheFile is the SQLite database holding the last fetched posts.
	CacheFile string
	Timeout   time.Duration
}

// LoadDefaults populates c with defaults. Files live under the user config
// directory, falling back to the working directory when it is unknown.
func (c *Config) LoadDefaults() {
	dir := "."
	if base, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(base, "blogctl")
	}

	c.ServerURL = "http://localhost:3001"
	c.TokenFile = filepath.Join(dir, "token")
	c.CacheFile = filepath.Join(dir, "cache.db")
	c.Timeout = 10 * time.Second
}

// LoadConfig applies defaults, then the JSON file at path (when non-empty),
// then the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, path); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	return cfg, nil
}
