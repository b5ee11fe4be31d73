package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/philcifone/blog/internal/common"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeTagFailure         = "TAG_FAILURE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnavailable        = "UNAVAILABLE"
)

type errorBody struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps a service error onto a status, a code and the message shown
// to the caller. Internal failures get a generic message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, common.ErrInvalidCredential):
		return http.StatusBadRequest, CodeInvalidCredentials, "invalid username or password"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, CodeUnauthorized, "authentication required"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, CodeNotFound, "not found"
	case errors.Is(err, common.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err.Error()
	case errors.Is(err, common.ErrPartialTagFailure):
		return http.StatusInternalServerError, CodeTagFailure, "failed to save tags"
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", "code", code, "error", err)
	}
	writeJSON(w, status, errorBody{Error: true, Code: code, Message: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: true, Code: code, Message: msg})
}
