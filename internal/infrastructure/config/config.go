package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store driver names accepted by STORE_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`

	PasswordAlgo string `env:"PASSWORD_ALGO, default=argon2id"`
	BcryptCost   int    `env:"BCRYPT_COST,   default=12"`

	StoreDriver  string `env:"STORE_DRIVER,  default=sqlite"`
	SQLitePath   string `env:"SQLITE_PATH,   default=auth.db"`
	CacheEnabled bool   `env:"CACHE_ENABLED, default=false"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_service"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// devSecret is only ever used outside production-like environments.
const devSecret = "dev-secret-change-me"

// Load reads configuration from environment variables using go-envconfig
// and validates it. Startup aborts on an unusable configuration; nothing
// here is recoverable per-request.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.Env != "development" {
			return fmt.Errorf("config: JWT_SECRET must be set outside development")
		}
		c.JWTSecret = devSecret
	}
	switch c.StoreDriver {
	case DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}
