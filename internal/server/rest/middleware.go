package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/logging"
	"github.com/philcifone/blog/internal/server/metrics"
	"github.com/philcifone/blog/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// PrincipalFromContext returns the admin authenticated by requireAuth.
func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok
}

// requireAuth rejects requests without a valid bearer token before the
// wrapped handler reads the body.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := common.BearerToken(r.Header.Get(common.AuthorizationHeader))
		if !ok {
			writeErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "missing bearer token")
			return
		}

		principal, err := s.deps.Users.Authenticate(r.Context(), token)
		if err != nil {
			s.logger.Debug(r.Context(), "token rejected", "error", err)
			writeErrorCode(w, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		ctx = logging.ContextWith(ctx, "user", principal.UserName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logContext tags every record logged while serving r with its request id.
func logContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = logging.ContextWith(ctx, "request_id", id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// instrument records request counts and latency per route pattern so that
// ids in paths do not explode label cardinality.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
