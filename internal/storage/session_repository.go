package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
)

// SessionRepository persists conversation sessions keyed by their UUID.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get loads a session by ID. Returns ErrNotFound when the session does not
// exist, and ErrNotFound as well when the stored context fails to decode, so
// a corrupt row behaves like a missing session.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	query := `SELECT context, updated_at FROM sessions WHERE id = ?`

	var raw string
	var updatedAt int64
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var contextMap map[string]any
	if err := json.Unmarshal([]byte(raw), &contextMap); err != nil {
		return nil, fmt.Errorf("%w: corrupt session context", apperrors.ErrNotFound)
	}

	return &Session{ID: id, Context: contextMap, UpdatedAt: updatedAt}, nil
}

// Save upserts a session with the current timestamp.
func (r *SessionRepository) Save(ctx context.Context, id string, contextMap map[string]any) error {
	raw, err := json.Marshal(contextMap)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}

	query := `
	INSERT INTO sessions (id, context, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET context = excluded.context, updated_at = excluded.updated_at
	`
	if _, err := r.db.conn.ExecContext(ctx, query, id, string(raw), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteOlderThan removes sessions not updated since the cutoff and returns
// the number removed.
func (r *SessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
