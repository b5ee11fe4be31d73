// Package cache keeps a local SQLite copy of the blog's posts so the client
// can still list and show them when the server is unreachable.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/philcifone/blog/internal/client/migrations"
	"github.com/philcifone/blog/internal/client/models"
	"github.com/philcifone/blog/internal/client/repositories/metadata"
	"github.com/philcifone/blog/internal/client/repositories/posts"
	"github.com/philcifone/blog/internal/dbx"
	"github.com/philcifone/blog/internal/filex"
)

const syncedAtKey = "synced_at"

// InMemory is the path of a throwaway cache that lives as long as the process.
const InMemory = ":memory:"

type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache database at path and migrates it.
func Open(ctx context.Context, path string) (*Cache, error) {
	dsn := path
	if path != InMemory {
		if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db, now: time.Now}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate cache: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Replace swaps the whole cached post list for list and records the sync
// time. Either everything is replaced or nothing is.
func (c *Cache) Replace(ctx context.Context, list []models.Post) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		pr := posts.NewSQLiteRepository(tx)
		if err := pr.DeleteAll(ctx); err != nil {
			return err
		}
		for i := range list {
			if err := pr.Upsert(ctx, &list[i]); err != nil {
				return err
			}
		}
		return metadata.NewSQLiteRepository(tx).Set(ctx, syncedAtKey, c.now().UTC().Format(time.RFC3339Nano))
	})
}

// Put stores a single post fetched from the server.
func (c *Cache) Put(ctx context.Context, p *models.Post) error {
	return posts.NewSQLiteRepository(c.db).Upsert(ctx, p)
}

// Forget drops post id, typically after it was deleted on the server.
func (c *Cache) Forget(ctx context.Context, id int64) error {
	return posts.NewSQLiteRepository(c.db).Delete(ctx, id)
}

func (c *Cache) Posts(ctx context.Context) ([]models.Post, error) {
	return posts.NewSQLiteRepository(c.db).List(ctx)
}

// Post returns common.ErrorNotFound when id was never cached.
func (c *Cache) Post(ctx context.Context, id int64) (*models.Post, error) {
	return posts.NewSQLiteRepository(c.db).Get(ctx, id)
}

// SyncedAt reports when Replace last succeeded; ok is false if never.
func (c *Cache) SyncedAt(ctx context.Context) (t time.Time, ok bool, err error) {
	raw, ok, err := metadata.NewSQLiteRepository(c.db).Get(ctx, syncedAtKey)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err = time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", syncedAtKey, err)
	}
	return t, true, nil
}

// Clear empties the cache, for example on logout.
func (c *Cache) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return errors.Join(
			posts.NewSQLiteRepository(tx).DeleteAll(ctx),
			metadata.NewSQLiteRepository(tx).Delete(ctx, syncedAtKey),
		)
	})
}
