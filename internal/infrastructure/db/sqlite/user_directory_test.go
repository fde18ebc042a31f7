package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/authkeep/auth-service/internal/core/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testUser(username, email string) *domain.User {
	return &domain.User{
		Username:       username,
		PasswordHash:   "$2a$12$fakehashfakehashfakehash",
		Role:           domain.RoleNormal,
		CreationMethod: domain.CreationMethodWeb,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Email:          email,
		IsActive:       true,
	}
}

func TestStore_CreateAndFind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testUser("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Username != "alice" {
		t.Fatalf("unexpected created user: %+v", created)
	}

	byName, err := store.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if byName.Email != "alice@example.com" || !byName.IsActive {
		t.Fatalf("unexpected user: %+v", byName)
	}
	if !byName.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("created_at not preserved: %v", byName.CreatedAt)
	}

	byEmail, err := store.FindByIdentifier(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByIdentifier(email): %v", err)
	}
	if byEmail.Username != "alice" {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	if _, err := store.FindByUsername(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_Conflicts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, testUser("alice", "alice@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := store.Create(ctx, testUser("alice", "other@example.com")); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := store.Create(ctx, testUser("bob", "alice@example.com")); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// Users without an email never collide on the email column.
	if _, err := store.Create(ctx, testUser("carol", "")); err != nil {
		t.Fatalf("Create without email: %v", err)
	}
	if _, err := store.Create(ctx, testUser("dave", "")); err != nil {
		t.Fatalf("second create without email: %v", err)
	}
}
