// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below matches exactly one of these with errors.Is.
var (
	// ErrValidation marks input rejected locally before any store call.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks a failure reported by the transaction store.
	ErrStore = errors.New("store request failed")
	// ErrConfiguration marks programmer misuse of the filter catalog or engine wiring.
	ErrConfiguration = errors.New("configuration error")
)

// Common application errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError reports user input that cannot be turned into a store request.
type ValidationError struct {
	Err   error
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	msg := "invalid input"
	if e.Field != "" {
		msg = fmt.Sprintf("invalid %s", e.Field)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Value)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a validation error for the given field and raw value.
func NewValidationError(field, value string, err error) error {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// StoreError wraps a failed call to the transaction store.
type StoreError struct {
	Err error
	Op  string
	ID  string
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStore) match any StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

// NewStoreError wraps err as a store failure of operation op on record id.
func NewStoreError(op, id string, err error) error {
	return &StoreError{Op: op, ID: id, Err: err}
}

// ConfigurationError reports catalog or wiring misuse. It is never shown to users.
type ConfigurationError struct {
	Err  error
	What string
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.What)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConfiguration) match any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// NewConfigurationError creates a configuration error describing what was misused.
func NewConfigurationError(what string, err error) error {
	return &ConfigurationError{What: what, Err: err}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
