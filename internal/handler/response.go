package handler

// Response helpers shared by every handler in this package. All errors
// leave the API in one shape:
//
//	{"error": "not_found", "message": "profile not found with id octocat"}
//
// so clients can branch on the machine-readable kind without parsing
// prose. The mapping from domain errors to HTTP status lives here and
// only here; the service layer never sees a status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/contribgraph/internal/apperror"
)

// ErrorResponse is the standard error body returned by all endpoints.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// writeJSON sends a JSON response. Headers and status must be written
// before the body; Encode starts the write.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into an HTTP response.
// errors.Is walks the wrap chain, so services are free to annotate with
// fmt.Errorf("...: %w", err) without breaking the mapping. Unknown
// errors become an opaque 500 — raw internals never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrInvalidRange):
		status = http.StatusBadRequest
		errorType = "invalid_range"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrInvalidToken):
		status = http.StatusUnauthorized
		errorType = "invalid_token"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrRateLimited):
		status = http.StatusTooManyRequests
		errorType = "rate_limited"
	case errors.Is(err, apperror.ErrUpstream):
		status = http.StatusBadGateway
		errorType = "upstream_error"
	}

	resp := ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Field:   appErr.Field,
	}
	if retry := apperror.RetryAfterSeconds(err); retry > 0 {
		// Both the header and the body carry the wait, for clients that
		// only read one of them.
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		resp.RetryAfter = retry
	}

	writeJSON(w, status, resp)
}
