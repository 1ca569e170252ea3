package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedUser inserts a user so rows with user_id foreign keys can be created.
func seedUser(t *testing.T, s *Store, id string) *domain.User {
	t.Helper()
	now := time.Now()
	user := &domain.User{
		Entity: domain.Entity{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        id + "@example.com",
		Username:     id,
		PasswordHash: "hash",
	}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{
		"users", "sessions", "themes", "videos", "tags", "memos", "memo_tags",
		"tasks", "reminders",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s1, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	// Re-running the schema against an existing database must not fail.
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}
