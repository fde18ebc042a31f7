package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authkeep/auth-service/internal/api/handler"
	"github.com/authkeep/auth-service/internal/core/domain"
	"github.com/authkeep/auth-service/internal/infrastructure/config"
)

type memoryDirectory struct {
	users map[string]*domain.User
}

func (d *memoryDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := d.users[username]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (d *memoryDirectory) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	for _, u := range d.users {
		if u.Username == identifier || (u.Email != "" && u.Email == identifier) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *memoryDirectory) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := d.users[user.Username]; exists {
		return nil, domain.ErrUsernameTaken
	}
	clone := *user
	d.users[user.Username] = &clone
	return user, nil
}

// The prometheus middleware registers collectors in the default registry, so
// the router is built once for the whole test binary.
func newTestRouter(t *testing.T) (*echo.Echo, *memoryDirectory) {
	t.Helper()
	cfg := &config.Config{
		Port:         "8080",
		Env:          "development",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		PasswordAlgo: "bcrypt",
		BcryptCost:   4,
	}
	dir := &memoryDirectory{users: make(map[string]*domain.User)}
	deps := map[string]handler.Pinger{
		"store": handler.PingFunc(func(context.Context) error { return nil }),
	}
	e, err := NewRouter(cfg, zerolog.Nop(), dir, deps)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return e, dir
}

func doJSON(e *echo.Echo, method, path, body, authHeader string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_EndToEnd(t *testing.T) {
	e, dir := newTestRouter(t)

	// Register alice.
	rec := doJSON(e, http.MethodPost, "/api/user/register", `{"username":"alice","password":"Passw0rd!","email":"alice@example.com"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Fatalf("register response leaks password_hash: %s", rec.Body)
	}

	// Registering the same username again conflicts.
	rec = doJSON(e, http.MethodPost, "/api/user/register", `{"username":"alice","password":"0therPass!"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	// Same email under a different username conflicts too.
	rec = doJSON(e, http.MethodPost, "/api/user/register", `{"username":"alice2","password":"Passw0rd!","email":"alice@example.com"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", rec.Code)
	}

	// Field validation failures carry details.
	rec = doJSON(e, http.MethodPost, "/api/user/register", `{"username":"bob","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "details") {
		t.Fatalf("expected validation details, got %s", rec.Body)
	}

	// Login with the registered credentials.
	rec = doJSON(e, http.MethodPost, "/api/user/login", `{"identifier":"alice","password":"Passw0rd!"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body)
	}
	var loginResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("login response: %v", err)
	}
	if loginResp.AccessToken == "" || loginResp.TokenType != "bearer" {
		t.Fatalf("unexpected login response: %+v", loginResp)
	}

	// Wrong password is a generic 401.
	rec = doJSON(e, http.MethodPost, "/api/user/login", `{"identifier":"alice","password":"wrong-pass"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
	genericBody := rec.Body.String()

	// The protected endpoint returns alice's profile.
	rec = doJSON(e, http.MethodGet, "/api/user/me", "", "Bearer "+loginResp.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d (%s)", rec.Code, rec.Body)
	}
	var me map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("me response: %v", err)
	}
	if me["username"] != "alice" || me["email"] != "alice@example.com" {
		t.Fatalf("unexpected profile: %+v", me)
	}
	if _, leaked := me["password_hash"]; leaked {
		t.Fatalf("me response leaks password_hash")
	}

	// A token sliced by one character is rejected.
	rec = doJSON(e, http.MethodGet, "/api/user/me", "", "Bearer "+loginResp.AccessToken[:len(loginResp.AccessToken)-1])
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("sliced token: expected 401, got %d", rec.Code)
	}

	// No header at all.
	rec = doJSON(e, http.MethodGet, "/api/user/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", rec.Code)
	}

	// Disable alice: login collapses into the same generic failure, while
	// the still-valid token is rejected with a distinct outcome.
	dir.users["alice"].IsActive = false

	rec = doJSON(e, http.MethodPost, "/api/user/login", `{"identifier":"alice","password":"Passw0rd!"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("disabled login: expected 401, got %d", rec.Code)
	}
	if rec.Body.String() != genericBody {
		t.Fatalf("disabled login leaks a distinguishing signal: %s vs %s", rec.Body, genericBody)
	}

	rec = doJSON(e, http.MethodGet, "/api/user/me", "", "Bearer "+loginResp.AccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("disabled me: expected 401, got %d", rec.Code)
	}

	// Unknown subject maps to 404.
	delete(dir.users, "alice")
	rec = doJSON(e, http.MethodGet, "/api/user/me", "", "Bearer "+loginResp.AccessToken)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown subject: expected 404, got %d", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	e := echo.New()
	health := handler.NewHealthHandler()
	e.GET("/health", health.Liveness)

	rec := doJSON(e, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
}
