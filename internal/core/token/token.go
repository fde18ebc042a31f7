// Package token issues and validates the bearer tokens handed out at login.
// Tokens are self-contained HS256 JWTs; the service keeps no token store, so
// rotating the signing secret invalidates everything issued before it.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authkeep/auth-service/internal/core/domain"
)

// DefaultTTL applies when a caller issues without an explicit TTL and no
// default was configured.
const DefaultTTL = time.Hour

// Claims are the fields embedded in every issued token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a process-wide secret. It is
// immutable after construction and safe for concurrent use.
type Service struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret string, defaultTTL time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: signing secret is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	s := &Service{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue builds a signed token with {sub, role, iat, exp} claims.
// A non-positive ttl falls back to the configured default.
func (s *Service) Issue(subject, role string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := s.now().UTC()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Validate decodes a token and verifies signature and expiry. Every failure
// mode (signature mismatch, malformed encoding, algorithm mismatch, expiry)
// collapses into domain.ErrInvalidToken; no partial claims are returned.
// A token is valid strictly before its exp instant.
func (s *Service) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
