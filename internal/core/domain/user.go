package domain

import "time"

const (
	RoleNormal   = "normal"
	RolePlatinum = "platinum"
)

const CreationMethodWeb = "web"

// User models an account in the directory. PasswordHash is algorithm-tagged
// and never serialized.
type User struct {
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	CreationMethod string    `json:"creation_method"`
	CreatedAt      time.Time `json:"created_at"`
	Email          string    `json:"email,omitempty"`
	IsActive       bool      `json:"is_active"`
}
