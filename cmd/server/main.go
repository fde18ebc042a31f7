// Command server runs the auth service HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/authkeep/auth-service/internal/api"
	"github.com/authkeep/auth-service/internal/api/handler"
	"github.com/authkeep/auth-service/internal/core/ports"
	"github.com/authkeep/auth-service/internal/infrastructure/config"
	mongostore "github.com/authkeep/auth-service/internal/infrastructure/db/mongo"
	redisstore "github.com/authkeep/auth-service/internal/infrastructure/db/redis"
	sqlitestore "github.com/authkeep/auth-service/internal/infrastructure/db/sqlite"
	"github.com/authkeep/auth-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger not built yet; config failures go straight to stderr.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	directory, deps, cleanup, err := buildDirectory(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise user store")
	}
	defer cleanup()

	e, err := api.NewRouter(cfg, log, directory, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("auth service started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildDirectory opens the configured user store and, when enabled, wraps it
// with the Redis read-through cache. The returned map feeds the readiness
// probe.
func buildDirectory(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserDirectory, map[string]handler.Pinger, func(), error) {
	var (
		directory ports.UserDirectory
		deps      = make(map[string]handler.Pinger)
		cleanups  []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.StoreDriver {
	case config.DriverMongo:
		store, err := mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = store.Close(context.Background()) })
		directory = store
		deps["mongodb"] = store
	default:
		store, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = store.Close() })
		directory = store
		deps["sqlite"] = store
	}

	if cfg.CacheEnabled {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		directory = redisstore.NewCachedDirectory(directory, client, log)
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	return directory, deps, cleanup, nil
}
