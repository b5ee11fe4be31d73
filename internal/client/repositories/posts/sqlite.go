package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/philcifone/blog/internal/client/models"
	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/dbx"
)

// timeLayout has a fixed width so text ordering in SQLite matches time
// ordering. Values are always stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectColumns = `id, title, content, excerpt, image_path, created_at, updated_at, tags`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Post) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO posts (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			excerpt = excluded.excerpt,
			image_path = excluded.image_path,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			tags = excluded.tags
	`,
		p.ID, p.Title, p.Content, p.Excerpt, p.ImagePath,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt), string(rawTags),
	)
	if err != nil {
		return fmt.Errorf("upsert post %d: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	res := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		res = append(res, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return res, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		p                models.Post
		image            sql.NullString
		created, updated string
		rawTags          string
	)
	if err := s.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &image, &created, &updated, &rawTags); err != nil {
		return nil, err
	}
	if image.Valid {
		p.ImagePath = &image.String
	}

	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(rawTags), &p.Tags); err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
