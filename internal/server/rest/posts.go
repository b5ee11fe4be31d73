package rest

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/server/services"
	"github.com/philcifone/blog/internal/server/uploads"
)

// formOverhead is the room left for text fields on top of the image limit.
const formOverhead = 1 << 20

// createdAtLayouts are tried in order when parsing created_at.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.deps.Posts.List(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	resp := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, newPostResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := s.deps.Posts.Get(r.Context(), id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPostResponse(post))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := s.readPostInput(w, r)
	defer cleanup()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	// created_at only backdates existing posts
	in.CreatedAt = nil

	post, err := s.deps.Posts.Create(r.Context(), in)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.audit(r, "create", post.ID)
	writeJSON(w, http.StatusCreated, mutationResponse{
		Success: true,
		Message: "Post created successfully",
		PostID:  post.ID,
	})
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	in, cleanup, err := s.readPostInput(w, r)
	defer cleanup()
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	post, err := s.deps.Posts.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.audit(r, "update", id)
	writeJSON(w, http.StatusOK, mutationResponse{
		Success: true,
		Message: "Post updated successfully",
		PostID:  post.ID,
	})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	if err := s.deps.Posts.Delete(r.Context(), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.audit(r, "delete", id)
	writeJSON(w, http.StatusOK, mutationResponse{Success: true, Message: "Post deleted successfully"})
}

// audit records a mutation; requireAuth has already put the admin's name on
// the request's log context.
func (s *Server) audit(r *http.Request, action string, id int64) {
	s.logger.Info(r.Context(), "admin action", "action", action, "post_id", id)
}

// postID parses the {id} path parameter. An id that is not a positive
// integer can never name a post, so it answers 404 like a missing one.
func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorCode(w, http.StatusNotFound, CodeNotFound, "post not found")
		return 0, false
	}
	return id, true
}

type postRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	Tags      string `json:"tags"`
	CreatedAt string `json:"created_at"`
	// Timezone is an IANA zone name for created_at values without an offset.
	Timezone string `json:"timezone"`
}

// readPostInput accepts a multipart or urlencoded form, with an optional
// "image" file, or a JSON body without an image. The returned cleanup
// releases multipart temp files and must always be called.
func (s *Server) readPostInput(w http.ResponseWriter, r *http.Request) (services.PostInput, func(), error) {
	cleanup := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize+formOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req postRequest
		if err := decodeJSON(r, &req); err != nil {
			return services.PostInput{}, cleanup, bodyError(err)
		}
		in, err := buildPostInput(req)
		return in, cleanup, err
	}

	if err := r.ParseMultipartForm(s.opts.MaxUploadSize + formOverhead); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return services.PostInput{}, cleanup, bodyError(err)
		}
		if err := r.ParseForm(); err != nil {
			return services.PostInput{}, cleanup, bodyError(err)
		}
	}
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { _ = form.RemoveAll() }
	}

	in, err := buildPostInput(postRequest{
		Title:     r.FormValue("title"),
		Content:   r.FormValue("content"),
		Excerpt:   r.FormValue("excerpt"),
		Tags:      r.FormValue("tags"),
		CreatedAt: r.FormValue("created_at"),
		Timezone:  r.FormValue("timezone"),
	})
	if err != nil {
		return in, cleanup, err
	}

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return in, cleanup, nil
	case err != nil:
		return in, cleanup, bodyError(err)
	}

	release := cleanup
	cleanup = func() {
		_ = file.Close()
		release()
	}

	in.Image = &uploads.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return in, cleanup, nil
}

func buildPostInput(req postRequest) (services.PostInput, error) {
	in := services.PostInput{
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		TagsText: req.Tags,
	}

	if v := strings.TrimSpace(req.CreatedAt); v != "" {
		loc, err := createdAtLocation(req.Timezone)
		if err != nil {
			return in, err
		}
		t, err := parseCreatedAt(v, loc)
		if err != nil {
			return in, err
		}
		in.CreatedAt = &t
	}
	return in, nil
}

// createdAtLocation resolves the zone for offset-less created_at values.
// Without a hint they are taken as UTC.
func createdAtLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", common.ErrorValidation, name)
	}
	return loc, nil
}

// parseCreatedAt reads v in loc unless it carries its own offset, and
// returns the instant in UTC.
func parseCreatedAt(v string, loc *time.Location) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: created_at %q is not a valid date", common.ErrorValidation, v)
}

// bodyError turns request body failures into client errors.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", common.ErrPayloadTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: malformed request body: %w", common.ErrorValidation, err)
}
