package domain

import "errors"

// Authentication failures collapse into ErrInvalidCredentials so callers
// cannot enumerate accounts. Authorization failures stay distinct because
// the caller already holds a token.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingAuthHeader  = errors.New("missing or invalid authorization header")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
)
