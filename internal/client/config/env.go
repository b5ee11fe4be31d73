package config

import (
	"fmt"
	"os"
	"time"
)

var lookupEnv = os.LookupEnv

func parseEnv(cfg *Config) error {
	if v, ok := lookupEnv("BLOG_SERVER_URL"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookupEnv("BLOG_TOKEN_FILE"); ok && v != "" {
		cfg.TokenFile = v
	}
	if v, ok := lookupEnv("BLOG_CACHE_FILE"); ok && v != "" {
		cfg.CacheFile = v
	}
	if v, ok := lookupEnv("BLOG_CLIENT_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOG_CLIENT_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return nil
}
