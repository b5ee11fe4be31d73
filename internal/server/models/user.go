package models

import "time"

type User struct {
	ID           int64     `db:"id"`
	UserName     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Principal is the authenticated admin derived from a valid token.
type Principal struct {
	UserID   int64
	UserName string
}
