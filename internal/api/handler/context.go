package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authkeep/auth-service/internal/core/domain"
)

// UserContextKey is where the Auth middleware stores the resolved user.
const UserContextKey = "user"

// currentUser extracts the user injected by the Auth middleware. Its absence
// means the handler was registered without the middleware; fail closed.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(UserContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication context")
	}
	return user, nil
}
