package ports

import (
	"context"

	"github.com/authkeep/auth-service/internal/core/domain"
)

// UserDirectory defines the persistence capability for user records.
// Lookups return domain.ErrUserNotFound when no record matches; Create
// returns domain.ErrUsernameTaken or domain.ErrEmailTaken on conflicts.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByIdentifier matches either the username or the email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
