package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	_ "github.com/authkeep/auth-service/docs"
	"github.com/authkeep/auth-service/internal/api/handler"
	"github.com/authkeep/auth-service/internal/api/middleware"
	"github.com/authkeep/auth-service/internal/core/password"
	"github.com/authkeep/auth-service/internal/core/ports"
	"github.com/authkeep/auth-service/internal/core/service"
	"github.com/authkeep/auth-service/internal/core/token"
	"github.com/authkeep/auth-service/internal/infrastructure/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, log zerolog.Logger, directory ports.UserDirectory, deps map[string]handler.Pinger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	hasher, err := password.New(password.Algorithm(cfg.PasswordAlgo), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("build hasher: %w", err)
	}
	tokens, err := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("build token service: %w", err)
	}
	authService := service.NewAuthService(directory, hasher, tokens, log)
	gate := service.NewGate(tokens, directory)
	authHandler := handler.NewAuthHandler(authService)

	// --- Auth routes ---
	g := e.Group("/api/user")
	g.POST("/register", authHandler.Register)
	g.POST("/login", authHandler.Login)
	g.GET("/me", authHandler.Me, middleware.Auth(gate))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e, nil
}
