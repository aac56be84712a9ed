package postgres

import (
	"context"
	"database/sql"

	"github.com/n1rocket/go-profile-validity/internal/db"
	"github.com/n1rocket/go-profile-validity/internal/repository"
)

// UnitOfWork runs repository calls inside a database transaction
type UnitOfWork struct {
	db *db.DB
}

// NewUnitOfWork creates a unit of work over database
func NewUnitOfWork(database *db.DB) *UnitOfWork {
	return &UnitOfWork{db: database}
}

// Within hands fn a repository bound to a fresh transaction
func (u *UnitOfWork) Within(ctx context.Context, fn func(repository.UserRepository) error) error {
	return u.db.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(NewUserRepository(tx))
	})
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
