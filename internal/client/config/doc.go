// Package config loads settings for the blogctl command-line client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional JSON file passed with --config.
//  3. BLOG_SERVER_URL, BLOG_TOKEN_FILE, BLOG_CACHE_FILE and BLOG_CLIENT_TIMEOUT.
//  4. Command-line flags, applied by the cli package.
//
// # JSON schema
//
// Durations use timex.Duration, so "10s" and integer nanoseconds both work:
//
//	{
//	  "server_url": "https://blog.example.org",
//	  "token_file": "/home/me/.config/blogctl/token",
//	  "cache_file": "/home/me/.config/blogctl/cache.db",
//	  "timeout": "10s"
//	}
package config
