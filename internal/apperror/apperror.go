package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the kind of failure. Services return these
// (wrapped in an *AppError); the HTTP layer maps each kind to a status code
// without re-deriving any state.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrInvalidRange = errors.New("invalid range")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream error")
	ErrInvalidToken = errors.New("invalid token")
)

type AppError struct {
	Err        error  // sentinel identifying the error kind
	Message    string // Human-readable error message
	Field      string // Optional: field causing the error
	RetryAfter int    // Optional: seconds to wait (rate-limit denials only)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// InvalidRange returns an AppError for a partial or inverted date range.
// Checked before any persistence access; HTTP handlers map this to 400.
func InvalidRange(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidRange,
		Message: message,
		Field:   "range",
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or unusable credentials.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// RateLimited returns an AppError carrying the suggested wait in seconds.
// Callers surface RetryAfter verbatim (e.g. as a Retry-After header).
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    fmt.Sprintf("rate limited, retry in %ds", retryAfterSeconds),
		RetryAfter: retryAfterSeconds,
	}
}

// Upstream returns an AppError for a GitHub failure that is not an auth
// rejection: network errors, non-2xx responses, malformed payloads.
func Upstream(message string) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}

// InvalidToken returns an AppError for an upstream 401/403 — the token was
// rejected by GitHub. Never retried automatically.
func InvalidToken() *AppError {
	return &AppError{
		Err:     ErrInvalidToken,
		Message: "GitHub rejected the provided token",
	}
}

// RetryAfterSeconds extracts the RetryAfter hint from an error chain.
// Returns 0 if err is not a rate-limit denial.
func RetryAfterSeconds(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(err, ErrRateLimited) {
		return appErr.RetryAfter
	}
	return 0
}
