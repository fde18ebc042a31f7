package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/authkeep/auth-service/internal/core/domain"
	"github.com/authkeep/auth-service/internal/core/ports"
)

const cacheTTL = 30 * time.Second

// CachedDirectory is a read-through cache over a UserDirectory. Only
// username lookups are cached: they run on every authorized request, while
// identifier lookups only happen at login. A cache failure is never fatal;
// the inner directory stays authoritative.
type CachedDirectory struct {
	inner  ports.UserDirectory
	client *redis.Client
	log    zerolog.Logger
}

func NewCachedDirectory(inner ports.UserDirectory, client *redis.Client, log zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{inner: inner, client: client, log: log}
}

// cachedUser carries PasswordHash, which domain.User deliberately excludes
// from JSON. Cache entries never leave the service.
type cachedUser struct {
	Username       string    `json:"username"`
	PasswordHash   string    `json:"password_hash"`
	Role           string    `json:"role"`
	CreationMethod string    `json:"creation_method"`
	CreatedAt      time.Time `json:"created_at"`
	Email          string    `json:"email,omitempty"`
	IsActive       bool      `json:"is_active"`
}

func cacheKey(username string) string {
	return "user:" + username
}

func (d *CachedDirectory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	raw, err := d.client.Get(ctx, cacheKey(username)).Bytes()
	if err == nil {
		var cu cachedUser
		if err := json.Unmarshal(raw, &cu); err == nil {
			return cu.toDomain(), nil
		}
		d.log.Warn().Str("username", username).Msg("corrupt cache entry, falling through")
	} else if err != redis.Nil {
		d.log.Warn().Err(err).Msg("user cache read failed, falling through")
	}

	user, err := d.inner.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	d.store(ctx, user)
	return user, nil
}

func (d *CachedDirectory) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return d.inner.FindByIdentifier(ctx, identifier)
}

func (d *CachedDirectory) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created, err := d.inner.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	// Drop any stale entry rather than priming the cache on write.
	if err := d.client.Del(ctx, cacheKey(created.Username)).Err(); err != nil {
		d.log.Warn().Err(err).Str("username", created.Username).Msg("user cache invalidation failed")
	}
	return created, nil
}

func (d *CachedDirectory) store(ctx context.Context, user *domain.User) {
	raw, err := json.Marshal(cachedUser{
		Username:       user.Username,
		PasswordHash:   user.PasswordHash,
		Role:           user.Role,
		CreationMethod: user.CreationMethod,
		CreatedAt:      user.CreatedAt,
		Email:          user.Email,
		IsActive:       user.IsActive,
	})
	if err != nil {
		return
	}
	if err := d.client.Set(ctx, cacheKey(user.Username), raw, cacheTTL).Err(); err != nil {
		d.log.Warn().Err(err).Str("username", user.Username).Msg("user cache write failed")
	}
}

func (cu *cachedUser) toDomain() *domain.User {
	return &domain.User{
		Username:       cu.Username,
		PasswordHash:   cu.PasswordHash,
		Role:           cu.Role,
		CreationMethod: cu.CreationMethod,
		CreatedAt:      cu.CreatedAt,
		Email:          cu.Email,
		IsActive:       cu.IsActive,
	}
}
