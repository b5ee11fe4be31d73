package repomanager

import (
	"context"
	"database/sql"

	"github.com/philcifone/blog/internal/dbx"
	"github.com/philcifone/blog/internal/server/repositories/posts"
	"github.com/philcifone/blog/internal/server/repositories/tags"
	"github.com/philcifone/blog/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// hand them either the pool or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Tags(db dbx.DBTX) tags.Repository
}
