package posts

import (
	"context"

	"github.com/philcifone/blog/internal/server/models"
)

type Repository interface {
	// List returns posts newest first. A limit of 0 returns every post.
	List(ctx context.Context, limit int) ([]*models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	// Update replaces title, content and excerpt. ImagePath and CreatedAt are
	// only replaced when set on post.
	Update(ctx context.Context, post *models.Post) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
}
