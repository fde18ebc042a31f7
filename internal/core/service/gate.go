package service

import (
	"context"
	"strings"

	"github.com/authkeep/auth-service/internal/core/domain"
	"github.com/authkeep/auth-service/internal/core/ports"
	"github.com/authkeep/auth-service/internal/core/token"
)

// Gate authorizes bearer credentials against the directory. The checks run
// in a fixed order with distinct rejections, because each maps to a
// different caller-visible outcome:
//
//  1. missing or malformed header  → domain.ErrMissingAuthHeader
//  2. token fails validation       → domain.ErrInvalidToken
//  3. subject not in the directory → domain.ErrUserNotFound
//  4. account inactive             → domain.ErrUserDisabled
type Gate struct {
	tokens    *token.Service
	directory ports.UserDirectory
}

func NewGate(tokens *token.Service, directory ports.UserDirectory) *Gate {
	return &Gate{tokens: tokens, directory: directory}
}

// Authorize resolves authHeader to an active user or a domain rejection.
func (g *Gate) Authorize(ctx context.Context, authHeader string) (*domain.User, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, domain.ErrMissingAuthHeader
	}

	claims, err := g.tokens.Validate(parts[1])
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := g.directory.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrUserDisabled
	}

	return user, nil
}
