// Package apperror provides domain-specific error types for Shotwall.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw filesystem or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 403, 404, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "storage_failure").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the Shotwall failure taxonomy ---

// NewStorage creates a 500 error for filesystem I/O or image decode failures.
// The real error is kept in Internal for logging; the client only ever sees
// a generic failure status, never the underlying path or decoder message.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "storage_failure",
		Message:  "The file could not be stored.",
		Internal: err,
	}
}

// NewDenied creates a 403 error for authorization denials: whitelist miss,
// group mismatch, or a folder outside the session's allowed set.
func NewDenied(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "authorization_denied",
		Message: message,
	}
}

// NewUnauthorized creates a 401 error for requests without a valid session.
// The error handler turns this into a /login redirect for browser requests.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewUnavailable creates a 503 error for an unreachable or misconfigured
// external service. Browse flows degrade to "no enrichment" instead of
// returning this; upload identity resolution converts it into a deny.
func NewUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:     http.StatusServiceUnavailable,
		Type:     "external_unavailable",
		Message:  message,
		Internal: err,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like filesystem paths or decoder output.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
