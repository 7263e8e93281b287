// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases and policies return these errors and
// the HTTP boundary maps them to status codes.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate username).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is well formed but fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBadRequest indicates the request body or parameters could not be parsed.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates the request lacks a resolved identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the resolved identity doesn't hold the required role.
	ErrForbidden = errors.New("forbidden")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string for the context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
