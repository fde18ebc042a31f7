package ports

import (
	"context"

	"github.com/authkeep/auth-service/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (string, error)
}

// AuthorizationGate turns a raw Authorization header into a resolved,
// active user or one of the domain rejection errors.
type AuthorizationGate interface {
	Authorize(ctx context.Context, authHeader string) (*domain.User, error)
}
