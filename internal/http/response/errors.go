package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	"github.com/n1rocket/go-profile-validity/internal/token"
)

// WriteError writes an error response to the client.
// AppErrors are mapped through the default registry; domain and token
// errors through a fixed table. Anything else is a 500 and is logged.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status, body := apperrors.DefaultRegistry.Handle(err)
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "error", err)
		}
		WriteJSON(w, status, body)
		return
	}

	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}

	WriteJSON(w, status, apperrors.ErrorResponse{
		Error: apperrors.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "User not found"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL", "Email already exists"
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest, "INVALID_EMAIL", "Invalid email format"
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters long"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "PASSWORD_MISMATCH", "Passwords do not match"
	case errors.Is(err, token.ErrExpiredToken):
		return http.StatusUnauthorized, "EXPIRED_TOKEN", "Token has expired"
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"
	}
}

// WriteJSON writes a JSON response to the client
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// SeeOther redirects the client to location with 303 See Other
func SeeOther(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}
