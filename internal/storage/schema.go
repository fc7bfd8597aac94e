package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createSessionsTable(db); err != nil {
		return err
	}
	return createStaffTable(db)
}

func createSessionsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		context TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}

	return nil
}

func createStaffTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS staff (
		name TEXT PRIMARY KEY,
		title TEXT,
		email TEXT,
		phone TEXT,
		office TEXT,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_staff_cached_at ON staff(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create staff table: %w", err)
	}

	return nil
}
