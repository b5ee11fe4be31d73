package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/philcifone/blog/internal/server/feed"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logContext)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Get("/tags", s.handleListTags)

		r.With(s.loginLimiter()...).Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/posts", s.handleCreatePost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Post("/tags/prune", s.handlePruneTags)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeErrorCode(w, http.StatusNotFound, CodeNotFound, "not found")
		})
	})

	r.Get("/rss.xml", s.handleFeed(feed.RSS2))
	r.Get("/atom.xml", s.handleFeed(feed.Atom1))
	r.Get("/feed.json", s.handleFeed(feed.JSON1))
	r.Get("/uploads/{name}", s.handleUpload)

	if s.opts.StaticDir != "" {
		r.NotFound(s.spaHandler(s.opts.StaticDir))
	}

	return r
}

// loginLimiter throttles login attempts per client IP. A non-positive limit
// disables it.
func (s *Server) loginLimiter() []func(http.Handler) http.Handler {
	if s.opts.LoginRateLimit <= 0 {
		return nil
	}
	return []func(http.Handler) http.Handler{
		httprate.Limit(
			s.opts.LoginRateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeErrorCode(w, http.StatusTooManyRequests, CodeRateLimited, "too many login attempts")
			}),
		),
	}
}
