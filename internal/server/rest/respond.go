package rest

import (
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/philcifone/blog/internal/server/models"
)

const maxJSONBody = 1 << 20

type postResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	ImagePath *string   `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags"`
}

func newPostResponse(p *models.Post) postResponse {
	resp := postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Excerpt:   p.Excerpt,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
		Tags:      p.Tags,
	}
	if p.ImagePath != "" {
		path := p.ImagePath
		resp.ImagePath = &path
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  int64  `json:"postId,omitempty"`
}

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type pruneResponse struct {
	Removed int64 `json:"removed"`
}

type tagResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
}
