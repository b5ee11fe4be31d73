// Package common defines sentinel errors and constants shared by the blog
// server and its command-line client. Callers should match the errors with
// errors.Is.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorValidation      = errors.New("validation error")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrPartialTagFailure = errors.New("tag association failed")

	// upload errors
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
