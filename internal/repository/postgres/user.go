package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	"github.com/n1rocket/go-profile-validity/internal/repository"
)

const (
	// PostgreSQL error code for unique violation
	uniqueViolationCode = "23505"
	// PostgreSQL error code for malformed input such as a non-uuid id
	invalidTextRepresentationCode = "22P02"
)

// UserRepository implements repository.UserRepository using PostgreSQL
type UserRepository struct {
	db DBTX
}

// DBTX interface allows the repository to work with both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user in the database
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			email, name, password_hash, email_valid,
			email_validation_hash, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING id`

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.EmailValid,
		user.EmailValidationHash,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if pgCode(err) == uniqueViolationCode {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}
	query := `
		SELECT
			id, email, name, password_hash, email_valid,
			email_validation_hash, created_at, updated_at
		FROM users
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.EmailValid,
		&user.EmailValidationHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == invalidTextRepresentationCode {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// SetEmailValidationHash replaces the pending verification hash
func (r *UserRepository) SetEmailValidationHash(ctx context.Context, id, hash string) error {
	query := `
		UPDATE users SET
			email_validation_hash = $2,
			updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set email validation hash", query, id, hash)
}

// MarkEmailValid flips email_valid and clears the pending hash together
func (r *UserRepository) MarkEmailValid(ctx context.Context, id string) error {
	query := `
		UPDATE users SET
			email_valid = TRUE,
			email_validation_hash = '',
			updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "mark email valid", query, id)
}

// UpdateProfile merges the patch into the stored row
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) error {
	if patch.Empty() {
		return nil
	}

	query := `
		UPDATE users SET
			password_hash = COALESCE($2, password_hash),
			name = COALESCE($3, name),
			updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update profile", query, id, patch.PasswordHash, patch.Name)
}

// execOne runs an UPDATE that must touch exactly one user
func (r *UserRepository) execOne(ctx context.Context, action, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pgCode(err) == invalidTextRepresentationCode {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Ensure UserRepository implements repository.UserRepository
var _ repository.UserRepository = (*UserRepository)(nil)
