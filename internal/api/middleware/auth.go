package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/authkeep/auth-service/internal/api/handler"
	"github.com/authkeep/auth-service/internal/api/metrics"
	"github.com/authkeep/auth-service/internal/core/domain"
	"github.com/authkeep/auth-service/internal/core/ports"
)

// Auth gates a route behind the authorization gate: it resolves the bearer
// token to an active user and injects it into the request context. Rejections
// propagate as domain errors for the central error handler to map.
func Auth(gate ports.AuthorizationGate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")

			user, err := gate.Authorize(c.Request().Context(), authHeader)
			if err != nil {
				metrics.AuthRequestsTotal.WithLabelValues(authOutcome(err)).Inc()
				return err
			}

			metrics.AuthRequestsTotal.WithLabelValues("ok").Inc()
			c.Set(handler.UserContextKey, user)

			return next(c)
		}
	}
}

func authOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingAuthHeader):
		return "missing_header"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrUserNotFound):
		return "unknown_subject"
	case errors.Is(err, domain.ErrUserDisabled):
		return "account_disabled"
	default:
		return "error"
	}
}
