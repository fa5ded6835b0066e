// Package errors provides structured error handling for the indexing
// adapter.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (category store, index store)
//   - 3XX: Validation errors
//   - 4XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates category-store and index-store errors.
	CategoryStorage Category = "STORAGE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeCategoryStore = "ERR_201_CATEGORY_STORE"
	ErrCodeIndexStore    = "ERR_202_INDEX_STORE"
	ErrCodeCorruptIndex  = "ERR_203_CORRUPT_INDEX"
	ErrCodeStoreClosed   = "ERR_204_STORE_CLOSED"

	// Validation errors (300-399)
	ErrCodeInvalidInput = "ERR_301_INVALID_INPUT"
	ErrCodeInvalidState = "ERR_302_INVALID_STATE"

	// Internal errors (400-499)
	ErrCodeInternal = "ERR_401_INTERNAL"
)

// categoryFromCode derives the error category from the code prefix.
func categoryFromCode(code string) Category {
	switch {
	case len(code) >= 5 && code[4] == '1':
		return CategoryConfig
	case len(code) >= 5 && code[4] == '2':
		return CategoryStorage
	case len(code) >= 5 && code[4] == '3':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the severity from the code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeStoreClosed:
		return SeverityFatal
	default:
		return SeverityError
	}
}
