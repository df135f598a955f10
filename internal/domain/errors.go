package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable signals that the entity store could not serve a read.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrValidation signals a malformed request.
	ErrValidation = errors.New("invalid request")
	// ErrEntryTooLarge signals a cache payload above the configured entry size.
	ErrEntryTooLarge = errors.New("cache entry too large")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)

// ValidationError carries the offending field alongside ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps an entity store failure as ErrStoreUnavailable while keeping the cause.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
