package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/philcifone/blog/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError is an error response the client has no sentinel for.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap exposes the shared sentinel matching the error code, if any.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "VALIDATION_FAILED":
		return common.ErrorValidation
	case "INVALID_CREDENTIALS":
		return common.ErrInvalidCredential
	case "PAYLOAD_TOO_LARGE":
		return common.ErrPayloadTooLarge
	case "TAG_FAILURE":
		return common.ErrPartialTagFailure
	}
	if e.Status == http.StatusRequestEntityTooLarge {
		return common.ErrPayloadTooLarge
	}
	return nil
}
