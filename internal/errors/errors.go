package errors

import (
	"errors"
	"fmt"
)

// CodeIndexError is the structured error type used across the code index.
// It carries enough context for logging, CLI output and retry decisions.
type CodeIndexError struct {
	// Code is the unique error code (e.g., "ERR_104_MIGRATION_FAILED").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *CodeIndexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CodeIndexError) Unwrap() error {
	return e.Cause
}

// Is matches another CodeIndexError by code, so errors.Is works on sentinel values.
func (e *CodeIndexError) Is(target error) bool {
	if t, ok := target.(*CodeIndexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *CodeIndexError) WithDetail(key, value string) *CodeIndexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *CodeIndexError) WithSuggestion(suggestion string) *CodeIndexError {
	e.Suggestion = suggestion
	return e
}

// New creates a CodeIndexError. Category, severity and the retryable flag
// are derived from the code.
func New(code string, message string, cause error) *CodeIndexError {
	return &CodeIndexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a CodeIndexError from an existing error, reusing its message.
func Wrap(code string, err error) *CodeIndexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *CodeIndexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// MigrationError creates a fatal schema migration error.
func MigrationError(message string, cause error) *CodeIndexError {
	return New(ErrCodeMigrationFailed, message, cause).
		WithSuggestion("Restore the latest file from the config backup directory and retry")
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *CodeIndexError {
	return New(ErrCodeFileNotFound, message, cause)
}

// StoreError creates an error for the persisted configuration store.
func StoreError(message string, cause error) *CodeIndexError {
	return New(ErrCodeStoreFailed, message, cause)
}

// NetworkError creates a network-related error. Network errors are retryable.
func NetworkError(message string, cause error) *CodeIndexError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *CodeIndexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *CodeIndexError {
	return New(ErrCodeInternal, message, cause)
}

// as finds the first CodeIndexError in err's chain.
func as(err error) (*CodeIndexError, bool) {
	var ce *CodeIndexError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRetryable reports whether err (or anything it wraps) is a retryable CodeIndexError.
func IsRetryable(err error) bool {
	if ce, ok := as(err); ok {
		return ce.Retryable
	}
	return false
}

// IsFatal reports whether err has fatal severity.
func IsFatal(err error) bool {
	if ce, ok := as(err); ok {
		return ce.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code. Returns empty string if err is not a CodeIndexError.
func GetCode(err error) string {
	if ce, ok := as(err); ok {
		return ce.Code
	}
	return ""
}

// GetCategory extracts the category. Returns empty string if err is not a CodeIndexError.
func GetCategory(err error) Category {
	if ce, ok := as(err); ok {
		return ce.Category
	}
	return ""
}
