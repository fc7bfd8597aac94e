package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
)

func newTestRepo(t *testing.T) (*SessionRepository, *DB) {
	t.Helper()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionRepository(db), db
}

func TestSessionSaveAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	contextMap := map[string]any{
		"current_topic":  "registration",
		"last_question":  "when is registration",
		"session_active": true,
		"history": []any{
			map[string]any{"user": "hi", "bot": "Hello!"},
		},
	}

	if err := repo.Save(ctx, "session-1", contextMap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "session-1" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Context["current_topic"] != "registration" {
		t.Errorf("current_topic = %v", got.Context["current_topic"])
	}
	if got.UpdatedAt == 0 {
		t.Error("UpdatedAt not set")
	}
}

func TestSessionGetNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSessionSaveUpserts(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "s", map[string]any{"current_topic": "a"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, "s", map[string]any{"current_topic": "b"}); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}

	got, err := repo.Get(ctx, "s")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Context["current_topic"] != "b" {
		t.Errorf("current_topic = %v, want b", got.Context["current_topic"])
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestSessionDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "s", map[string]any{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Delete(ctx, "s"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "s"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is not an error.
	if err := repo.Delete(ctx, "s"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestSessionCorruptContextBehavesLikeMissing(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO sessions (id, context, updated_at) VALUES (?, ?, ?)`,
		"corrupt", "{not json", time.Now().Unix())
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	if _, err := repo.Get(ctx, "corrupt"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get(corrupt) error = %v, want ErrNotFound", err)
	}
}

func TestSessionDeleteOlderThan(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour).Unix()
	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO sessions (id, context, updated_at) VALUES (?, ?, ?)`,
		"old", "{}", old)
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}
	if err := repo.Save(ctx, "fresh", map[string]any{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	removed, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := repo.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session should survive purge: %v", err)
	}
}
