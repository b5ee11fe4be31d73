// Package services holds the blog's business logic: admin authentication
// and post management on top of the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/server/auth"
	"github.com/philcifone/blog/internal/server/config"
	"github.com/philcifone/blog/internal/server/models"
	"github.com/philcifone/blog/internal/server/repositories/repomanager"
)

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
	now           func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		now:           time.Now,
	}
}

// Login checks the credentials and issues a bearer token. An unknown user
// yields common.ErrorNotFound and a wrong password common.ErrInvalidCredential;
// both take a bcrypt comparison so timing does not reveal which.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnCompare(password)
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			return "", err
		}
		return "", fmt.Errorf("check password: %w", err)
	}

	token, err := auth.GenerateToken(models.Principal{UserID: user.ID, UserName: user.UserName},
		s.jwtSecret, s.tokenValidity, s.now())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// Authenticate resolves a bearer token to the admin it was issued to. Any
// failure is reported as common.ErrorUnauthorized wrapping the cause.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	p, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	return p, nil
}

// Provision creates the admin account or replaces its password.
func (s *UserService) Provision(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", common.ErrorValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Upsert(ctx, userName, hash)
	if err != nil {
		return nil, fmt.Errorf("error provisioning user: %w", err)
	}

	return user, nil
}
