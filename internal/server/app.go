// Package server wires the blog backend together: it opens and migrates the
// database, selects the image store, builds the services and runs the HTTP
// server until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/philcifone/blog/internal/logging"
	"github.com/philcifone/blog/internal/server/config"
	"github.com/philcifone/blog/internal/server/feed"
	"github.com/philcifone/blog/internal/server/repositories/repomanager"
	"github.com/philcifone/blog/internal/server/rest"
	"github.com/philcifone/blog/internal/server/services"
	"github.com/philcifone/blog/internal/server/uploads"
)

type App struct {
	config *config.Config
	logger logging.Logger
	closer io.Closer
	db     *sql.DB
	server *rest.Server
}

// NewLogger builds the process logger from the logging settings in c.
func NewLogger(c *config.Config) (logging.Logger, io.Closer, error) {
	l, closer, err := logging.New(logging.Options{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		File:       c.LogFile,
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 30,
	})
	if err != nil {
		return nil, nil, err
	}
	return l, closer, nil
}

// OpenDatabase connects to PostgreSQL and applies pending migrations.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}

	return db, m, nil
}

func newImageStore(ctx context.Context, c *config.Config) (uploads.Store, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return uploads.NewS3Store(ctx, uploads.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		})
	case config.StorageDisk:
		return uploads.NewDiskStore(c.UploadDir)
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := NewLogger(c)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, m, err := OpenDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	store, err := newImageStore(ctx, c)
	if err != nil {
		_ = db.Close()
		_ = closer.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}
	uploader := uploads.NewUploader(store, c.MaxUploadSize)

	us := services.NewUserService(db, m, c)
	ps := services.NewPostService(db, m, uploader, logger)
	fg := feed.NewGenerator(ps, feed.Options{
		SiteURL:     c.SiteURL,
		Title:       c.FeedTitle,
		Description: c.FeedDescription,
		AuthorName:  c.FeedAuthorName,
		AuthorEmail: c.FeedAuthorEmail,
	})

	srv := rest.NewServer(rest.Options{
		Addr:               c.ListenAddr,
		StaticDir:          c.StaticDir,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		LoginRateLimit:     c.LoginRateLimit,
		MaxUploadSize:      c.MaxUploadSize,
		ShutdownTimeout:    c.ShutdownTimeout,
	}, rest.Deps{
		Posts:  ps,
		Users:  us,
		Feeds:  fg,
		Images: uploader,
		DB:     db,
	}, logger)

	logger.Info(ctx, "App initialized", "storage", c.StorageBackend, "site_url", c.SiteURL)

	return &App{config: c, logger: logger, closer: closer, db: db, server: srv}, nil
}

// Run serves until SIGINT, SIGTERM or SIGQUIT arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	err := app.server.Run(ctx)

	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(err, app.Close())
}

func (app *App) Close() error {
	return errors.Join(app.db.Close(), app.closer.Close())
}

// Main is the server entry point used by cmd/server.
func Main() {
	ctx := context.Background()

	app, err := NewApp(ctx, config.MustLoad())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
