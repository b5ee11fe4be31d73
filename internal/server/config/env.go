package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// parseEnv loads dotenvPath (if it exists) into the process environment and
// then overlays BLOG_* variables. Variables already set in the environment
// win over the file. PORT and SITE_URL are honoured for compatibility with
// common hosting setups.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if v, ok := lookupEnv("PORT"); ok && v != "" {
		config.ListenAddr = ":" + v
	}
	if v, ok := lookupEnv("SITE_URL"); ok && v != "" {
		config.SiteURL = v
	}

	strs := map[string]*string{
		"BLOG_ADDR":              &config.ListenAddr,
		"BLOG_DATABASE_DSN":      &config.DatabaseDSN,
		"BLOG_SECRET_KEY":        &config.SecretKey,
		"BLOG_SITE_URL":          &config.SiteURL,
		"BLOG_UPLOAD_DIR":        &config.UploadDir,
		"BLOG_STATIC_DIR":        &config.StaticDir,
		"BLOG_STORAGE":           &config.StorageBackend,
		"BLOG_S3_ACCESS_KEY":     &config.S3AccessKey,
		"BLOG_S3_SECRET_KEY":     &config.S3SecretKey,
		"BLOG_S3_BUCKET":         &config.S3Bucket,
		"BLOG_S3_REGION":         &config.S3Region,
		"BLOG_S3_ENDPOINT":       &config.S3BaseEndpoint,
		"BLOG_S3_PREFIX":         &config.S3Prefix,
		"BLOG_LOG_LEVEL":         &config.LogLevel,
		"BLOG_LOG_FORMAT":        &config.LogFormat,
		"BLOG_LOG_FILE":          &config.LogFile,
		"BLOG_FEED_TITLE":        &config.FeedTitle,
		"BLOG_FEED_DESCRIPTION":  &config.FeedDescription,
		"BLOG_FEED_AUTHOR_NAME":  &config.FeedAuthorName,
		"BLOG_FEED_AUTHOR_EMAIL": &config.FeedAuthorEmail,
	}
	for key, dst := range strs {
		if v, ok := lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookupEnv("BLOG_TOKEN_VALIDITY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOG_TOKEN_VALIDITY: %w", err)
		}
		config.TokenValidityDuration = d
	}
	if v, ok := lookupEnv("BLOG_MAX_UPLOAD_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLOG_MAX_UPLOAD_SIZE: %w", err)
		}
		config.MaxUploadSize = n
	}
	if v, ok := lookupEnv("BLOG_LOGIN_RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BLOG_LOGIN_RATE_LIMIT: %w", err)
		}
		config.LoginRateLimit = n
	}
	if v, ok := lookupEnv("BLOG_CORS_ORIGINS"); ok && v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
