package tags

import (
	"context"

	"github.com/philcifone/blog/internal/server/models"
)

type Repository interface {
	// Ensure returns the id of the tag called name, creating it if needed.
	Ensure(ctx context.Context, name string) (int64, error)
	// Link attaches a tag to a post. Linking twice is a no-op.
	Link(ctx context.Context, postID, tagID int64, position int) error
	UnlinkAll(ctx context.Context, postID int64) error
	ListWithCounts(ctx context.Context) ([]models.TagCount, error)
	// Prune deletes tags no post refers to and reports how many went away.
	Prune(ctx context.Context) (int64, error)
}
