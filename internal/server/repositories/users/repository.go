package users

import (
	"context"

	"github.com/philcifone/blog/internal/server/models"
)

type Repository interface {
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	// Upsert creates the user or replaces the password hash of an existing one.
	Upsert(ctx context.Context, userName, passwordHash string) (*models.User, error)
}
