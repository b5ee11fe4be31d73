package config

import (
	"flag"
	"io"
	"time"

	"github.com/philcifone/blog/internal/flagx"
)

// parseFlags overlays short command-line flags onto config.
//
//	-a string   listen address (":3001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-t int      token validity, minutes
//	-u string   public site URL used in feeds
//	-f string   upload directory (disk storage)
//	-w string   static SPA directory
//	-b string   storage backend, disk or s3
//	-l string   log level
//
// Arguments are filtered first so commands that embed the server config
// (cmd/adduser) can keep flags of their own.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-u", "-f", "-w", "-b", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.SiteURL, "u", config.SiteURL, "public site URL")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.StaticDir, "w", config.StaticDir, "static site directory")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (disk|s3)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	return nil
}
