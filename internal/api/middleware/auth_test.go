package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/authkeep/auth-service/internal/api/handler"
	"github.com/authkeep/auth-service/internal/core/domain"
	"github.com/authkeep/auth-service/internal/core/service"
	"github.com/authkeep/auth-service/internal/core/token"
)

type mapDirectory struct {
	users map[string]*domain.User
}

func (d *mapDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := d.users[username]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (d *mapDirectory) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	return d.FindByUsername(context.Background(), identifier)
}

func (d *mapDirectory) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	d.users[user.Username] = user
	return user, nil
}

func newTestMiddleware(t *testing.T, users map[string]*domain.User) (echo.MiddlewareFunc, *token.Service) {
	t.Helper()
	tokens, err := token.NewService("secret", time.Hour)
	if err != nil {
		t.Fatalf("token.NewService: %v", err)
	}
	gate := service.NewGate(tokens, &mapDirectory{users: users})
	return Auth(gate), tokens
}

func newTestContext(e *echo.Echo, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	mw, tokens := newTestMiddleware(t, map[string]*domain.User{
		"alice": {Username: "alice", Role: domain.RolePlatinum, IsActive: true},
	})

	signed, err := tokens.Issue("alice", domain.RolePlatinum, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c, rec := newTestContext(e, "Bearer "+signed)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		user, ok := c.Get(handler.UserContextKey).(*domain.User)
		if !ok || user == nil {
			t.Fatalf("user not set in context")
		}
		if user.Username != "alice" || user.Role != domain.RolePlatinum {
			t.Fatalf("unexpected user in context: %+v", user)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	e := echo.New()
	mw, tokens := newTestMiddleware(t, map[string]*domain.User{
		"alice":   {Username: "alice", Role: domain.RoleNormal, IsActive: true},
		"mallory": {Username: "mallory", Role: domain.RoleNormal, IsActive: false},
	})

	aliceToken, err := tokens.Issue("alice", domain.RoleNormal, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ghostToken, _ := tokens.Issue("ghost", domain.RoleNormal, time.Hour)
	malloryToken, _ := tokens.Issue("mallory", domain.RoleNormal, time.Hour)

	cases := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing header", "", domain.ErrMissingAuthHeader},
		{"wrong scheme", "Token " + aliceToken, domain.ErrMissingAuthHeader},
		{"empty token", "Bearer ", domain.ErrMissingAuthHeader},
		{"invalid token", "Bearer not-a-token", domain.ErrInvalidToken},
		{"sliced token", "Bearer " + aliceToken[:len(aliceToken)-1], domain.ErrInvalidToken},
		{"unknown subject", "Bearer " + ghostToken, domain.ErrUserNotFound},
		{"disabled account", "Bearer " + malloryToken, domain.ErrUserDisabled},
	}
	for _, tc := range cases {
		c, _ := newTestContext(e, tc.header)
		h := mw(func(c echo.Context) error {
			t.Fatalf("%s: should not reach next", tc.name)
			return nil
		})
		if err := h(c); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}
