// Package common defines shared constants and sentinel errors used across
// the marketplace server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Caller errors (missing or malformed input).
	ErrorValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// OpError reports a failed storage operation. It deliberately carries only the
// operation name: driver-level detail stays in the logs.
type OpError struct {
	Op string
}

func (e *OpError) Error() string {
	return e.Op + " failed"
}

// Unwrap lets errors.Is(err, ErrorInternal) match any OpError.
func (e *OpError) Unwrap() error {
	return ErrorInternal
}

// Failure builds an OpError for the named operation, e.g. Failure("user fetch").
func Failure(op string) error {
	return &OpError{Op: op}
}
