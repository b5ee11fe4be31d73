// Package rest exposes the blog over HTTP: the JSON API, the syndication
// feeds, stored images and, optionally, the single-page application build.
// It is the only place where service errors become status codes.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/logging"
	"github.com/philcifone/blog/internal/server/feed"
	"github.com/philcifone/blog/internal/server/models"
	"github.com/philcifone/blog/internal/server/services"
	"github.com/philcifone/blog/internal/server/uploads"
)

type PostService interface {
	List(ctx context.Context) ([]*models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, in services.PostInput) (*models.Post, error)
	Update(ctx context.Context, id int64, in services.PostInput) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]models.TagCount, error)
	PruneTags(ctx context.Context) (int64, error)
}

type UserService interface {
	Login(ctx context.Context, userName, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

type FeedRenderer interface {
	Render(ctx context.Context, format feed.Format) (string, error)
}

type ImageOpener interface {
	Open(ctx context.Context, name string) (*uploads.Object, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Posts  PostService
	Users  UserService
	Feeds  FeedRenderer
	Images ImageOpener
	DB     Pinger
}

type Options struct {
	Addr               string
	StaticDir          string
	CORSAllowedOrigins []string
	// LoginRateLimit is the number of login attempts allowed per IP and minute.
	LoginRateLimit  int
	MaxUploadSize   int64
	ShutdownTimeout time.Duration
}

type Server struct {
	opts    Options
	deps    Deps
	logger  logging.Logger
	handler http.Handler
}

func NewServer(opts Options, deps Deps, l logging.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = common.MaxImageSize
	}

	s := &Server{
		opts:   opts,
		deps:   deps,
		logger: l.With("module", "http_server"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
