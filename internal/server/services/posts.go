package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/dbx"
	"github.com/philcifone/blog/internal/logging"
	"github.com/philcifone/blog/internal/server/metrics"
	"github.com/philcifone/blog/internal/server/models"
	"github.com/philcifone/blog/internal/server/repositories/repomanager"
	"github.com/philcifone/blog/internal/server/repositories/tags"
	"github.com/philcifone/blog/internal/server/uploads"
	"github.com/philcifone/blog/internal/tagx"
	"github.com/philcifone/blog/internal/validation"
)

// ImageStore stores cover images and removes them again.
type ImageStore interface {
	Accept(ctx context.Context, img *uploads.Image) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

// PostInput is what the admin submits when creating or editing a post.
type PostInput struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Excerpt  string `json:"excerpt"`
	TagsText string `json:"tags"`
	// CreatedAt backdates the post on update; nil keeps the stored value.
	CreatedAt *time.Time `json:"created_at"`
	// Image replaces the cover image; nil keeps the stored one.
	Image *uploads.Image `json:"-"`
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageStore
	logger      logging.Logger
	now         func() time.Time
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, images ImageStore, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "posts"),
		now:         time.Now,
	}
}

func (s *PostService) List(ctx context.Context) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).List(ctx, 0)
}

// ListRecent returns at most limit posts, newest first.
func (s *PostService) ListRecent(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.repomanager.Posts(s.db).List(ctx, limit)
}

func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	return s.repomanager.Posts(s.db).Get(ctx, id)
}

func (s *PostService) validate(in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Excerpt = strings.TrimSpace(in.Excerpt)

	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.CreatedAt != nil && in.CreatedAt.After(s.now()) {
		return fmt.Errorf("%w: created_at cannot be in the future", common.ErrorValidation)
	}
	return nil
}

// Create stores a post, its optional image and its tags. The post row and
// every tag link are written in one transaction; when it fails the image
// written for it is deleted again.
func (s *PostService) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	imagePath, err := s.images.Accept(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	names := tagx.Normalize(in.TagsText)

	var created *models.Post
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		post, err := s.repomanager.Posts(tx).Create(ctx, &models.Post{
			Title:     in.Title,
			Content:   in.Content,
			Excerpt:   in.Excerpt,
			ImagePath: imagePath,
		})
		if err != nil {
			return err
		}

		if err := linkTags(ctx, s.repomanager.Tags(tx), post.ID, names); err != nil {
			return err
		}

		post.Tags = names
		created = post
		return nil
	})
	if err != nil {
		s.discardImage(ctx, imagePath)
		return nil, err
	}

	s.logger.Info(ctx, "post created", "id", created.ID, "tags", len(names), "image", imagePath != "")
	return created, nil
}

// Update replaces the post's text and tag set. The image and created_at are
// only replaced when supplied. Previous image files are kept.
func (s *PostService) Update(ctx context.Context, id int64, in PostInput) (*models.Post, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	imagePath, err := s.images.Accept(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	names := tagx.Normalize(in.TagsText)
	post := &models.Post{
		ID:        id,
		Title:     in.Title,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		ImagePath: imagePath,
	}
	if in.CreatedAt != nil {
		post.CreatedAt = in.CreatedAt.UTC()
	}

	var updated *models.Post
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := s.repomanager.Posts(tx).Update(ctx, post)
		if err != nil {
			return err
		}

		tagRepo := s.repomanager.Tags(tx)
		if err := tagRepo.UnlinkAll(ctx, id); err != nil {
			return err
		}
		if err := linkTags(ctx, tagRepo, id, names); err != nil {
			return err
		}

		p.Tags = names
		updated = p
		return nil
	})
	if err != nil {
		s.discardImage(ctx, imagePath)
		return nil, err
	}

	s.logger.Info(ctx, "post updated", "id", id, "tags", len(names), "image", imagePath != "")
	return updated, nil
}

// Delete removes the post's tag links and then the post. Tags themselves
// stay; see PruneTags.
func (s *PostService) Delete(ctx context.Context, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Tags(tx).UnlinkAll(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Posts(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "post deleted", "id", id)
	return nil
}

func (s *PostService) ListTags(ctx context.Context) ([]models.TagCount, error) {
	return s.repomanager.Tags(s.db).ListWithCounts(ctx)
}

// PruneTags deletes tags no longer attached to any post.
func (s *PostService) PruneTags(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Tags(s.db).Prune(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "tags pruned", "removed", n)
	return n, nil
}

// linkTags creates every tag first and then attaches them in the post's
// order. Tag rows are taken in sorted name order so two transactions sharing
// tags always lock them in the same sequence. The first failure stops the
// loop; the caller's transaction discards the partial set.
func linkTags(ctx context.Context, repo tags.Repository, postID int64, names []string) error {
	sorted := slices.Clone(names)
	slices.Sort(sorted)

	ids := make(map[string]int64, len(sorted))
	for _, name := range sorted {
		tagID, err := repo.Ensure(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: tag %q: %w", common.ErrPartialTagFailure, name, err)
		}
		ids[name] = tagID
	}

	for i, name := range names {
		if err := repo.Link(ctx, postID, ids[name], i); err != nil {
			return fmt.Errorf("%w: tag %q: %w", common.ErrPartialTagFailure, name, err)
		}
	}
	return nil
}

func (s *PostService) discardImage(ctx context.Context, imagePath string) {
	if imagePath == "" {
		return
	}
	if err := s.images.Remove(ctx, imagePath); err != nil {
		s.logger.Error(ctx, "failed to remove orphaned upload", "path", imagePath, "error", err)
		return
	}
	metrics.OrphanedUploadsRemoved.Inc()
	s.logger.Warn(ctx, "removed upload after failed post write", "path", imagePath)
}
