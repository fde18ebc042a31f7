// Package sqlite provides the SQLite-backed user directory. A single users
// table backs the whole service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/authkeep/auth-service/internal/core/domain"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	username        TEXT PRIMARY KEY,
	password_hash   TEXT NOT NULL,
	role            TEXT NOT NULL,
	creation_method TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	email           TEXT UNIQUE,
	is_active       INTEGER NOT NULL DEFAULT 1
);`

// Store implements ports.UserDirectory over a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite store and bootstraps the users table.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.Exec(createUsersTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (username, password_hash, role, creation_method, created_at, email, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreationMethod,
		user.CreatedAt.Unix(),
		nullableEmail(user.Email),
		boolToInt(user.IsActive),
	)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("sqlite: insert user: %w", err)
	}

	clone := *user
	return &clone, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `
SELECT username, password_hash, role, creation_method, created_at, email, is_active
FROM users WHERE username = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, q, username))
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	const q = `
SELECT username, password_hash, role, creation_method, created_at, email, is_active
FROM users WHERE username = ? OR email = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, q, identifier, identifier))
}

func (s *Store) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u         domain.User
		createdAt int64
		email     sql.NullString
		isActive  int
	)
	err := row.Scan(&u.Username, &u.PasswordHash, &u.Role, &u.CreationMethod, &createdAt, &email, &isActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("sqlite: scan user: %w", err)
	}

	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.Email = email.String
	u.IsActive = isActive != 0
	return &u, nil
}

// conflictError maps SQLite uniqueness violations onto the domain conflict
// errors, distinguishing the violated column.
func conflictError(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return domain.ErrUsernameTaken
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		if strings.Contains(err.Error(), "users.email") {
			return domain.ErrEmailTaken
		}
		return domain.ErrUsernameTaken
	}
	return nil
}

// nullableEmail stores an absent email as NULL so the UNIQUE constraint
// only applies to users that actually have one.
func nullableEmail(email string) sql.NullString {
	return sql.NullString{String: email, Valid: email != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
