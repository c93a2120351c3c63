package errors

import (
	"fmt"
	"runtime"
)

// Error codes surfaced in API responses. The HTTP layer maps each code to a
// status, so services signal intent through the code rather than picking
// statuses themselves.
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeValidationError     = "VALIDATION_ERROR"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeUnknownModelVersion = "UNKNOWN_MODEL_VERSION"
)

// AppError is the typed error carried from services up to the API layer.
// File and line point at the construction site to make log lines traceable
// without stack traces.
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Cause     error  `json:"-"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Operation string `json:"operation,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a typed error recording the caller's location.
func NewAppError(code, message string, cause error) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		File:    file,
		Line:    line,
	}
}

// WithOperation tags the error with the operation that produced it.
func (e *AppError) WithOperation(operation string) *AppError {
	e.Operation = operation
	return e
}

// WithDetails attaches extra context safe to show to API callers.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NotFound reports a missing deal, scan, or other entity.
func NotFound(message string, cause error) *AppError {
	return NewAppError(ErrCodeNotFound, message, cause)
}

// InvalidInput reports a request that is well-formed but semantically wrong,
// such as an unknown risk type or a malformed UUID.
func InvalidInput(message string, cause error) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, cause)
}

// ValidationError reports a request that fails field-level validation.
func ValidationError(message string, cause error) *AppError {
	return NewAppError(ErrCodeValidationError, message, cause)
}

func Unauthorized(message string, cause error) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, cause)
}

func Forbidden(message string, cause error) *AppError {
	return NewAppError(ErrCodeForbidden, message, cause)
}

func Conflict(message string, cause error) *AppError {
	return NewAppError(ErrCodeConflict, message, cause)
}

func DatabaseError(message string, cause error) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, cause)
}

// UnknownModelVersion signals a request for a scoring model version that has
// no registered configuration.
func UnknownModelVersion(version string) *AppError {
	return NewAppError(ErrCodeUnknownModelVersion, fmt.Sprintf("no scoring model registered for version %q", version), nil)
}
