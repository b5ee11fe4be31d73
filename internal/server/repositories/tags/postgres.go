// Package tags stores tag names and post-tag associations in PostgreSQL.
package tags

import (
	"context"
	"fmt"

	"github.com/philcifone/blog/internal/dbx"
	"github.com/philcifone/blog/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Ensure(ctx context.Context, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = $1`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

func (r *PostgresRepository) Link(ctx context.Context, postID, tagID int64, position int) error {
	query :=
		`INSERT INTO post_tags (post_id, tag_id, position)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (post_id, tag_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, postID, tagID, position); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UnlinkAll(ctx context.Context, postID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListWithCounts(ctx context.Context) ([]models.TagCount, error) {
	query :=
		`SELECT t.name, COUNT(pt.post_id)
		 FROM tags t
		 LEFT JOIN post_tags pt ON pt.tag_id = t.id
		 GROUP BY t.id, t.name
		 ORDER BY t.name
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TagCount, 0)
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Prune(ctx context.Context) (int64, error) {
	query :=
		`DELETE FROM tags t
		 WHERE NOT EXISTS (SELECT 1 FROM post_tags pt WHERE pt.tag_id = t.id)
		 `

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
