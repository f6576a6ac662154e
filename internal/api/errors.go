// Package api provides HTTP API handlers and standardized error handling.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mimyapp/tasteranker/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeInvalidScope indicates an unrecognized leaderboard scope.
	ErrCodeInvalidScope = "invalid_scope"

	// ErrCodeInvalidAnswers indicates quiz answers outside the accepted range.
	ErrCodeInvalidAnswers = "invalid_answers"

	// ErrCodeProfileNotFound indicates the user has no taste profile yet.
	ErrCodeProfileNotFound = "profile_not_found"

	// ErrCodeInsufficientSignal indicates a venue lacks enough ranked
	// reviewers for a reliable match estimate.
	ErrCodeInsufficientSignal = "insufficient_signal"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
//
// The error code is recorded on the request context so the logging
// middleware includes it in the access log for 4xx and 5xx responses.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.SetErrorCode(ctx, code)

	errResp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(errResp)
	if err != nil {
		// Fallback to plain text if JSON marshaling fails
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// WriteJSON writes a JSON success response with the given status code.
func WriteJSON(w http.ResponseWriter, ctx context.Context, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// StatusCodeMapping returns the recommended HTTP status code for common error codes.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeInvalidScope, ErrCodeInvalidAnswers:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeProfileNotFound:
		return http.StatusNotFound
	case ErrCodeInsufficientSignal:
		return http.StatusUnprocessableEntity
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
