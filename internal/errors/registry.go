package errors

import (
	"errors"
	"net/http"
)

// ErrorResponse represents the structure of error responses
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorHandler handles specific error types
type ErrorHandler func(err error) (int, ErrorResponse)

// Registry manages error mappings and responses
type Registry struct {
	handlers map[ErrorType]ErrorHandler
}

// NewRegistry creates a new error registry
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[ErrorType]ErrorHandler),
	}
	r.RegisterDefaults()
	return r
}

// Register registers an error handler for a specific error type
func (r *Registry) Register(errType ErrorType, handler ErrorHandler) {
	r.handlers[errType] = handler
}

// RegisterDefaults registers default error handlers
func (r *Registry) RegisterDefaults() {
	r.Register(ErrorTypeValidation, clientError(ErrorTypeValidation, "VALIDATION_ERROR", true))
	r.Register(ErrorTypeBadRequest, clientError(ErrorTypeBadRequest, "BAD_REQUEST", true))
	r.Register(ErrorTypeAuthentication, clientError(ErrorTypeAuthentication, "AUTHENTICATION_ERROR", false))
	r.Register(ErrorTypeAuthorization, clientError(ErrorTypeAuthorization, "FORBIDDEN", false))
	r.Register(ErrorTypeNotFound, clientError(ErrorTypeNotFound, "NOT_FOUND", false))
	r.Register(ErrorTypeRateLimit, clientError(ErrorTypeRateLimit, "RATE_LIMIT_EXCEEDED", true))

	// Internal errors never leak their message
	r.Register(ErrorTypeInternal, func(err error) (int, ErrorResponse) {
		return http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "An internal error occurred",
			},
		}
	})
}

// clientError builds a handler that echoes the AppError's code and message
func clientError(errType ErrorType, fallbackCode string, withDetails bool) ErrorHandler {
	status := GetHTTPStatus(errType)
	return func(err error) (int, ErrorResponse) {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return status, ErrorResponse{
				Error: ErrorDetail{
					Code:    fallbackCode,
					Message: http.StatusText(status),
				},
			}
		}

		detail := ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
		}
		if withDetails {
			detail.Details = appErr.Details
		}
		return status, ErrorResponse{Error: detail}
	}
}

// Handle processes an error and returns the appropriate HTTP status and response
func (r *Registry) Handle(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusOK, ErrorResponse{Success: true}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if handler, ok := r.handlers[appErr.Type]; ok {
			return handler(err)
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		},
	}
}

// DefaultRegistry is the default error registry
var DefaultRegistry = NewRegistry()
