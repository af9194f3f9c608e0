// Package common defines shared constants and sentinel errors used across
// CyberGuard layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrValidation     = errors.New("validation error")
	ErrWeakPassword   = errors.New("weak password")
	ErrDuplicateEmail = errors.New("user already exists")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")

	// Token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// ValidationError is a client input problem whose message is safe to show.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError returns a *ValidationError with msg.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
