// Package posts stores blog posts in PostgreSQL.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/dbx"
	"github.com/philcifone/blog/internal/server/models"
)

// selectPosts loads posts with their tag names folded into one column.
// Tag names never contain a comma, so the comma separator is unambiguous.
const selectPosts = `
	SELECT p.id, p.title, p.content, p.excerpt, p.image_path, p.created_at, p.updated_at,
	       COALESCE(string_agg(t.name, ',' ORDER BY pt.position, t.id), '') AS tags
	FROM posts p
	LEFT JOIN post_tags pt ON pt.post_id = p.id
	LEFT JOIN tags t ON t.id = pt.tag_id
	`

// PostgresRepository implements post storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	query := selectPosts + `
	GROUP BY p.id
	ORDER BY p.created_at DESC, p.id DESC
	LIMIT NULLIF($1, 0)
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Post, error) {
	query := selectPosts + `
	WHERE p.id = $1
	GROUP BY p.id
	`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (title, content, excerpt, image_path)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Excerpt, nullString(post.ImagePath),
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`UPDATE posts SET
		   title = $1,
		   content = $2,
		   excerpt = $3,
		   image_path = COALESCE($4, image_path),
		   created_at = COALESCE($5, created_at),
		   updated_at = now()
		 WHERE id = $6
		 RETURNING image_path, created_at, updated_at
		 `

	createdAt := sql.NullTime{Time: post.CreatedAt, Valid: !post.CreatedAt.IsZero()}

	var imagePath sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Excerpt, nullString(post.ImagePath), createdAt, post.ID,
	).Scan(&imagePath, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	post.ImagePath = imagePath.String

	return post, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		post      models.Post
		imagePath sql.NullString
		tags      string
	)
	if err := s.Scan(
		&post.ID, &post.Title, &post.Content, &post.Excerpt, &imagePath,
		&post.CreatedAt, &post.UpdatedAt, &tags,
	); err != nil {
		return nil, err
	}

	post.ImagePath = imagePath.String
	post.Tags = splitTags(tags)
	return &post, nil
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
