package database

import (
	"context"
	"database/sql"
	"fmt"
)

type TxFunc func(tx *sql.Tx) error

// WithTransaction runs fn in a transaction, committing when fn returns nil
func WithTransaction(ctx context.Context, db *sql.DB, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) error {
	return WithTransaction(ctx, db.DB, fn)
}

func (db *DB) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)`
	if err := db.QueryRowContext(ctx, query, tableName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if table exists: %w", err)
	}
	return exists, nil
}

func (db *DB) GetVersion(ctx context.Context) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}
