package config

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/philcifone/blog/internal/flagx"
	"github.com/philcifone/blog/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Only keys that are present and
// non-empty override the current values.
type JsonConfig struct {
	ListenAddr            string         `json:"listen_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	SiteURL               string         `json:"site_url"`
	UploadDir             string         `json:"upload_dir"`
	StaticDir             string         `json:"static_dir"`
	StorageBackend        string         `json:"storage_backend"`
	MaxUploadSize         int64          `json:"max_upload_size"`
	S3AccessKey           string         `json:"s3_access_key"`
	S3SecretKey           string         `json:"s3_secret_key"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3Prefix              string         `json:"s3_prefix"`
	CORSAllowedOrigins    []string       `json:"cors_allowed_origins"`
	LoginRateLimit        int            `json:"login_rate_limit"`
	LogLevel              string         `json:"log_level"`
	LogFormat             string         `json:"log_format"`
	LogFile               string         `json:"log_file"`
	FeedTitle             string         `json:"feed_title"`
	FeedDescription       string         `json:"feed_description"`
	FeedAuthorName        string         `json:"feed_author_name"`
	FeedAuthorEmail       string         `json:"feed_author_email"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays the file named by -c/-config onto config. Without the
// flag it does nothing.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SiteURL, c.SiteURL)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.StaticDir, c.StaticDir)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogFile, c.LogFile)
	setString(&config.FeedTitle, c.FeedTitle)
	setString(&config.FeedDescription, c.FeedDescription)
	setString(&config.FeedAuthorName, c.FeedAuthorName)
	setString(&config.FeedAuthorEmail, c.FeedAuthorEmail)

	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.LoginRateLimit > 0 {
		config.LoginRateLimit = c.LoginRateLimit
	}
	if len(c.CORSAllowedOrigins) > 0 {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
