package errors

import (
	"errors"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeAuthentication indicates a missing or unresolvable caller identity
	ErrorTypeAuthentication ErrorType = "authentication"
	// ErrorTypeAuthorization indicates a failed secret check
	ErrorTypeAuthorization ErrorType = "authorization"
	// ErrorTypeNotFound indicates a resource not found error
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeBadRequest indicates a bad request error
	ErrorTypeBadRequest ErrorType = "bad_request"
	// ErrorTypeRateLimit indicates the caller has to slow down
	ErrorTypeRateLimit ErrorType = "rate_limit"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Code    string
	Details interface{}
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *AppError) Unwrap() error {
	return e.cause
}

// NewError creates a new AppError
func NewError(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// WithCode adds a specific error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails returns a copy of the error carrying details
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy of the error wrapping cause
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

// Is reports whether target is an AppError with the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// IsType checks if the error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// GetHTTPStatus returns the appropriate HTTP status code for an error type
func GetHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeValidation, ErrorTypeBadRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeAuthorization:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Common errors
var (
	// ErrUnauthorized is returned when no caller identity can be resolved
	ErrUnauthorized = NewError(ErrorTypeAuthentication, "authentication required").WithCode("UNAUTHORIZED")

	// ErrForbidden is returned when a verification secret is rejected.
	// No pending verification and a wrong secret are deliberately the same error.
	ErrForbidden = NewError(ErrorTypeAuthorization, "forbidden").WithCode("FORBIDDEN")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = NewError(ErrorTypeNotFound, "user not found").WithCode("USER_NOT_FOUND")

	// ErrInvalidPrincipal is returned when the resolved identity has an unsupported shape
	ErrInvalidPrincipal = NewError(ErrorTypeBadRequest, "invalid caller identity").WithCode("INVALID_PRINCIPAL")

	// ErrPasswordMismatch is returned when password and confirmation differ
	ErrPasswordMismatch = NewError(ErrorTypeValidation, "passwords do not match").WithCode("PASSWORD_MISMATCH")

	// ErrInvalidSecret is returned when the secret in the verification link is malformed
	ErrInvalidSecret = NewError(ErrorTypeBadRequest, "invalid verification secret").WithCode("INVALID_SECRET")

	// ErrRateLimitExceeded is returned when a caller issues requests too quickly
	ErrRateLimitExceeded = NewError(ErrorTypeRateLimit, "too many requests, please try again later").WithCode("RATE_LIMIT_EXCEEDED")
)
