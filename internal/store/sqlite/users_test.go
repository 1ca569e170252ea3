package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidmemo/vidmemo-server/internal/domain"
	"github.com/vidmemo/vidmemo-server/internal/store"
)

func makeTestUser(id, email string) *domain.User {
	now := time.Now()
	return &domain.User{
		Entity: domain.Entity{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        email,
		Username:     "tester",
		PasswordHash: "$argon2id$fake",
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "Alice@Example.com")
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "Alice@Example.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "Alice@Example.com")
	}
	if got.Username != "tester" {
		t.Errorf("Username: got %q, want %q", got.Username, "tester")
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("PasswordHash: got %q, want %q", got.PasswordHash, user.PasswordHash)
	}
	if got.CreatedAt.Unix() != user.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, user.CreatedAt)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "Alice@Example.com")
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "ALICE@example.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want %q", got.ID, "user-1")
	}
	// The stored email keeps its original casing.
	if got.Email != "Alice@Example.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "Alice@Example.com")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "alice@example.com")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Same email with different casing hits the email_lower unique index.
	err := s.CreateUser(ctx, makeTestUser("user-2", "ALICE@example.com"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, "nonexistent"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for email lookup, got %v", err)
	}
}
