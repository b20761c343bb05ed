package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable matches any failure reported by the backing store.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	// ErrInvalidInput matches rejected names, dates, attributes and goals.
	ErrInvalidInput = errors.New("invalid input")
)

// StoreError records which store operation failed and on which path.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the backend error.
func (e *StoreError) Unwrap() error { return e.Err }

// Is lets callers test for ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// ValidationError describes a field that failed validation before any write was issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets callers test for ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func storeErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Path: path, Err: err}
}
