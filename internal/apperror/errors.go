package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound covers both "row does not exist" and "row belongs to another
// company" — callers must never be able to tell the two apart.
var ErrNotFound = errors.New("not found")

// ErrForbidden means the caller is authenticated but lacks the required role.
var ErrForbidden = errors.New("forbidden")

// NotFound wraps ErrNotFound with the entity name for logging.
func NotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a caller-facing reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// FieldError is a single field-level business rule violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one or more field-level violations. Checks run
// before any write, so a ValidationError guarantees nothing was persisted.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidation builds a single-field ValidationError.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Add appends another field violation and returns the error for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
	return e
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ConflictError maps a uniqueness violation to a user-facing message
// (the scheduling double-booking case).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ExternalServiceError reports a failed call to an outside service (email).
// It is surfaced as a warning unless the request's sole purpose was the call.
type ExternalServiceError struct {
	Service string
	Detail  string
}

func (e *ExternalServiceError) Error() string {
	if e.Detail == "" {
		return e.Service + " request failed"
	}
	return e.Service + ": " + e.Detail
}
