// Package auth issues and verifies the admin bearer tokens and hashes
// admin passwords.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/philcifone/blog/internal/common"
	"github.com/philcifone/blog/internal/server/models"
)

// Claims carries the registered claims plus the admin identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	UserName string `json:"username"`
}

// GenerateToken signs an HS256 token for p that expires validity after now.
func GenerateToken(p models.Principal, secretKey []byte, validity time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:   p.UserID,
		UserName: p.UserName,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString and returns the admin it was issued to.
// Expired tokens yield common.ErrTokenExpired; every other failure yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, common.ErrInvalidToken
	}

	return &models.Principal{UserID: claims.UserID, UserName: claims.UserName}, nil
}
