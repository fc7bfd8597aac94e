// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrNoAnswer indicates retrieval found no entry for the requested intent.
	ErrNoAnswer = errors.New("no answer found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyMessage indicates the user message was empty or whitespace-only.
	ErrEmptyMessage = errors.New("empty message")

	// ErrSessionClosed indicates the conversation session has been closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrUnknownIntent indicates an intent name that no configured rule covers.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// LoaderError represents knowledge dataset loading failures with context.
type LoaderError struct {
	Source string // file path or object key
	Line   int    // 1-based record number, 0 if not applicable
	Err    error
}

func (e *LoaderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("loader error (source=%s, record=%d): %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("loader error (source=%s): %v", e.Source, e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// NewLoaderError creates a new loader error.
func NewLoaderError(source string, line int, err error) *LoaderError {
	return &LoaderError{
		Source: source,
		Line:   line,
		Err:    err,
	}
}
