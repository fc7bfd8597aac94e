package storage

import (
	"context"
	"fmt"
	"time"
)

// StaffRepository caches the scraped staff directory.
type StaffRepository struct {
	db *DB
}

// NewStaffRepository creates a staff repository.
func NewStaffRepository(db *DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// ReplaceAll swaps the cached directory for the given members in one
// transaction, so readers never observe a half-written directory.
func (r *StaffRepository) ReplaceAll(ctx context.Context, members []StaffMember) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin staff transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staff`); err != nil {
		return fmt.Errorf("failed to clear staff table: %w", err)
	}

	now := time.Now().Unix()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO staff (name, title, email, phone, office, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare staff insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range members {
		if _, err := stmt.ExecContext(ctx, m.Name, m.Title, m.Email, m.Phone, m.Office, now); err != nil {
			return fmt.Errorf("failed to insert staff member %q: %w", m.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staff transaction: %w", err)
	}
	return nil
}

// GetAll returns every cached staff member in name order.
func (r *StaffRepository) GetAll(ctx context.Context) ([]StaffMember, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT name, title, email, phone, office, cached_at FROM staff ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []StaffMember
	for rows.Next() {
		var m StaffMember
		if err := rows.Scan(&m.Name, &m.Title, &m.Email, &m.Phone, &m.Office, &m.CachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff rows: %w", err)
	}
	return members, nil
}

// Count returns the number of cached staff members.
func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count staff: %w", err)
	}
	return count, nil
}

// OldestCachedAt returns the oldest cache timestamp, or zero time when the
// directory is empty.
func (r *StaffRepository) OldestCachedAt(ctx context.Context) (time.Time, error) {
	var cachedAt int64
	err := r.db.conn.QueryRowContext(ctx, `SELECT COALESCE(MIN(cached_at), 0) FROM staff`).Scan(&cachedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read staff cache age: %w", err)
	}
	if cachedAt == 0 {
		return time.Time{}, nil
	}
	return time.Unix(cachedAt, 0), nil
}
