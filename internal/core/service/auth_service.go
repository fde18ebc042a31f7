package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/authkeep/auth-service/internal/core/domain"
	"github.com/authkeep/auth-service/internal/core/password"
	"github.com/authkeep/auth-service/internal/core/ports"
	"github.com/authkeep/auth-service/internal/core/token"
)

// AuthService implements registration and login on top of the user
// directory, the password hasher, and the token service.
type AuthService struct {
	directory ports.UserDirectory
	hasher    *password.Hasher
	tokens    *token.Service
	log       zerolog.Logger
}

func NewAuthService(directory ports.UserDirectory, hasher *password.Hasher, tokens *token.Service, log zerolog.Logger) *AuthService {
	return &AuthService{directory: directory, hasher: hasher, tokens: tokens, log: log}
}

// Register creates a user with the least-privileged role. Username and email
// conflicts surface as distinct errors; uniqueness is not sensitive the way
// credentials are.
func (s *AuthService) Register(ctx context.Context, username, password, email string) (*domain.User, error) {
	if _, err := s.directory.FindByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if email != "" {
		if _, err := s.directory.FindByIdentifier(ctx, email); err == nil {
			return nil, domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:       username,
		PasswordHash:   hash,
		Role:           domain.RoleNormal,
		CreationMethod: domain.CreationMethodWeb,
		CreatedAt:      time.Now().UTC(),
		Email:          email,
		IsActive:       true,
	}

	created, err := s.directory.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login resolves the identifier (username or email) and verifies the
// password. Unknown accounts, disabled accounts, and wrong passwords all
// collapse into ErrInvalidCredentials so the response carries no
// enumeration signal; the distinction is only logged.
func (s *AuthService) Login(ctx context.Context, identifier, pw string) (string, error) {
	if identifier == "" || pw == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.directory.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Str("identifier", identifier).Msg("login for unknown identifier")
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !user.IsActive {
		s.log.Warn().Str("username", user.Username).Msg("login attempt for disabled account")
		return "", domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(pw, user.PasswordHash) {
		s.log.Debug().Str("username", user.Username).Msg("login password mismatch")
		return "", domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(user.Username, user.Role, 0)
	if err != nil {
		return "", err
	}

	s.log.Info().Str("username", user.Username).Msg("login successful")
	return signed, nil
}
