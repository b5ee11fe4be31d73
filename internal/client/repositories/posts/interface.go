// Package posts stores the client's offline copy of blog posts in SQLite.
package posts

import (
	"context"

	"github.com/philcifone/blog/internal/client/models"
)

type Repository interface {
	// Upsert inserts p or overwrites the cached copy with the same id.
	Upsert(ctx context.Context, p *models.Post) error
	// Get returns common.ErrorNotFound when id is not cached.
	Get(ctx context.Context, id int64) (*models.Post, error)
	// List returns cached posts newest first.
	List(ctx context.Context) ([]models.Post, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}
