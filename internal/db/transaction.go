package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxFunc represents a function that will be executed within a transaction
type TxFunc func(context.Context, *sql.Tx) error

// WithTransaction runs fn in a transaction. The transaction commits when fn
// returns nil and rolls back when fn fails or panics.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) error {
	return db.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions is WithTransaction with explicit isolation settings
func (db *DB) WithTransactionOptions(ctx context.Context, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
