package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	"github.com/n1rocket/go-profile-validity/internal/repository"
	"github.com/n1rocket/go-profile-validity/internal/security"
)

// ErrPasswordTooLong is returned for passwords bcrypt cannot hash
var ErrPasswordTooLong = apperrors.NewError(apperrors.ErrorTypeValidation, "password must be at most 72 bytes").WithCode("PASSWORD_TOO_LONG")

// PasswordHasher hashes new account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Profile is a user record without credentials or verification internals
type Profile struct {
	ID        string
	Email     string
	Name      *string
	CreatedAt time.Time
	Validity  Status
}

// UpdateProfileInput represents the changeable profile fields
type UpdateProfileInput struct {
	Password  string
	Password2 string
	Name      *string
}

// ProfileService reads and updates the caller's own profile
type ProfileService struct {
	users     repository.UserRepository
	passwords PasswordHasher
	logger    *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(users repository.UserRepository, passwords PasswordHasher, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Get returns the sanitized profile of userID
func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &Profile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		Validity:  *statusOf(user),
	}, nil
}

// Update applies the changed fields of input.
// A new password must be repeated in Password2 and is stored hashed.
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) error {
	var patch domain.ProfilePatch

	if input.Password != "" || input.Password2 != "" {
		if input.Password != input.Password2 {
			return apperrors.ErrPasswordMismatch
		}
		if err := domain.ValidatePassword(input.Password); err != nil {
			return err
		}
		hash, err := s.passwords.Hash(input.Password)
		if errors.Is(err, security.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		patch.Name = &name
	}

	if patch.Empty() {
		return apperrors.NewError(apperrors.ErrorTypeBadRequest, "no profile fields to update").WithCode("EMPTY_UPDATE")
	}

	if err := s.users.UpdateProfile(ctx, userID, patch); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated",
		"user_id", userID,
		"password_changed", patch.PasswordHash != nil,
	)
	return nil
}
