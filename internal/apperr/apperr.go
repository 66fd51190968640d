package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions that need no extra context.
var (
	ErrNotFound       = errors.New("NOT_FOUND")
	ErrForbidden      = errors.New("FORBIDDEN")
	ErrImmutableState = errors.New("IMMUTABLE_STATE")
	ErrInvalidName    = errors.New("INVALID_NAME")
	ErrSlugExhausted  = errors.New("SLUG_EXHAUSTED")
)

// ValidationError reports every field that failed validation, not just the
// first one.
type ValidationError struct {
	Fields map[string]string
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failure for a field. Later calls for the same field win.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError is returned on uniqueness violations that survive retry
// (duplicate email, slug allocation exhaustion at the storage layer).
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// AuthError wraps identity-provider failures. Message is already normalized
// for unrecognized credentials so account existence does not leak.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// UpstreamError wraps storage or object-storage failures unrelated to caller
// input. Callers receive a generic message; the cause goes to the log.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure in %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError unless it already carries one of the
// typed errors above, in which case it passes through untouched.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var ce *ConflictError
	var ae *AuthError
	if errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &ae) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrImmutableState) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
