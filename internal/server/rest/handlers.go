package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/server/feed"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, bodyError(err))
		return
	}

	token, err := s.deps.Users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		// unknown users look exactly like wrong passwords
		if errors.Is(err, common.ErrorNotFound) {
			err = common.ErrInvalidCredential
		}
		if errors.Is(err, common.ErrInvalidCredential) {
			s.logger.Warn(r.Context(), "login failed", "username", req.UserName, "remote", r.RemoteAddr)
		}
		s.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.deps.Posts.ListTags(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	resp := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, tagResponse{Name: t.Name, Count: t.Count})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePruneTags(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Posts.PruneTags(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, pruneResponse{Removed: n})
}

func (s *Server) handleFeed(format feed.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := s.deps.Feeds.Render(r.Context(), format)
		if err != nil {
			s.logger.Error(r.Context(), "feed generation failed", "format", string(format), "error", err)
			writeErrorCode(w, http.StatusInternalServerError, CodeInternal, "error generating feed")
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	obj, err := s.deps.Images.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.NotFound(w, r)
			return
		}
		s.writeError(r.Context(), w, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if rs, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", obj.ModTime, rs)
		return
	}

	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if !obj.ModTime.IsZero() {
		w.Header().Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.Copy(w, obj.Body)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.DB.PingContext(ctx); err != nil {
		s.logger.Error(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// spaHandler serves files from the single-page application build and falls
// back to its index.html so that client-side routes resolve.
func (s *Server) spaHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeErrorCode(w, http.StatusNotFound, CodeNotFound, "not found")
			return
		}

		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, name)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
