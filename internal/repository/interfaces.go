package repository

import (
	"context"

	"github.com/n1rocket/go-profile-validity/internal/domain"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user and assigns its ID
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// SetEmailValidationHash stores the hash of an outstanding verification secret
	SetEmailValidationHash(ctx context.Context, id, hash string) error

	// MarkEmailValid sets email_valid and clears email_validation_hash in one statement
	MarkEmailValid(ctx context.Context, id string) error

	// UpdateProfile merges the non-nil fields of patch into the stored user
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) error
}

// UnitOfWork runs a group of repository calls atomically.
// fn's changes are committed when it returns nil and rolled back otherwise.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(UserRepository) error) error
}
