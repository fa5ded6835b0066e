package errors

import (
	"fmt"
)

// FinderError is the structured error type for the indexing adapter.
// It carries a stable code, classification, and the underlying cause.
type FinderError struct {
	// Code is the unique error code (e.g., "ERR_201_CATEGORY_STORE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *FinderError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FinderError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with FinderError.
func (e *FinderError) Is(target error) bool {
	if t, ok := target.(*FinderError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *FinderError) WithDetail(key, value string) *FinderError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new FinderError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *FinderError {
	return &FinderError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a FinderError from an existing error.
// The error's message becomes the FinderError message.
func Wrap(code string, err error) *FinderError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CategoryStoreError wraps a category-store read/write failure.
func CategoryStoreError(message string, cause error) *FinderError {
	return New(ErrCodeCategoryStore, message, cause)
}

// IndexStoreError wraps an index-store failure.
func IndexStoreError(message string, cause error) *FinderError {
	return New(ErrCodeIndexStore, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *FinderError {
	return New(ErrCodeConfigInvalid, message, cause)
}
