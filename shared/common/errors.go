package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies application errors for logging and HTTP mapping.
type ErrorCode string

const (
	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	// Identifier pipeline errors
	ErrCodeInvalidFormat  ErrorCode = "INVALID_FORMAT"
	ErrCodeTypeConversion ErrorCode = "TYPE_CONVERSION"

	// Reconciliation errors
	ErrCodeLinkageMissing ErrorCode = "LINKAGE_MISSING"
	ErrCodeCountMismatch  ErrorCode = "COUNT_MISMATCH"

	// Database errors
	ErrCodeDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrCodeDatabaseQuery      ErrorCode = "DATABASE_QUERY"
)

// AppError is a structured application error carrying a code, an HTTP status
// and an optional cause.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Cause      error     `json:"-"`
	StatusCode int       `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches detail text and returns the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: httpStatusFor(code),
	}
}

// WrapError wraps an existing error with application error context. An
// existing AppError is preserved unchanged.
func WrapError(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StatusCode: httpStatusFor(code),
	}
}

// GetAppError extracts an AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasErrorCode reports whether err carries the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

func httpStatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeTypeConversion:
		return http.StatusBadRequest
	case ErrCodeLinkageMissing, ErrCodeCountMismatch:
		return http.StatusUnprocessableEntity
	case ErrCodeDatabaseConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common constructors.

// ErrNotFound creates a not found error for the named resource.
func ErrNotFound(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// ErrInvalidInput creates an invalid input error for the named field.
func ErrInvalidInput(field string) *AppError {
	return NewAppError(ErrCodeInvalidInput, fmt.Sprintf("invalid input for field: %s", field))
}

// ErrInvalidFormat creates an identifier format error.
func ErrInvalidFormat(details string) *AppError {
	return NewAppError(ErrCodeInvalidFormat, "malformed encoded identifier").WithDetails(details)
}

// ErrTypeConversion creates a field coercion error.
func ErrTypeConversion(field string, cause error) *AppError {
	e := NewAppError(ErrCodeTypeConversion, fmt.Sprintf("cannot convert field: %s", field))
	e.Cause = cause
	return e
}

// ErrLinkageMissing creates a reconciliation linkage error.
func ErrLinkageMissing(lookup string) *AppError {
	return NewAppError(ErrCodeLinkageMissing, fmt.Sprintf("no match for %s lookup", lookup))
}

// ErrCountMismatch creates a receipt count consistency error.
func ErrCountMismatch(expected, got int) *AppError {
	return NewAppError(ErrCodeCountMismatch,
		fmt.Sprintf("receipt count mismatch: expected %d, matched %d", expected, got))
}
