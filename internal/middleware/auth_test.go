package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/auth"
	"foodgram/internal/models"
)

type fakeAuthenticator struct {
	users map[string]*models.User
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, auth.ErrInvalidToken
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "token scheme", header: "Token abc", expected: "abc"},
		{name: "bearer scheme", header: "Bearer abc", expected: "abc"},
		{name: "lowercase scheme", header: "bearer abc", expected: "abc"},
		{name: "extra spaces", header: "  Token   abc  ", expected: "abc"},
		{name: "no scheme", header: "abc", expected: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", expected: ""},
		{name: "empty", header: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenFromHeader(tt.header)
			if got != tt.expected {
				t.Errorf("tokenFromHeader(%q) = %q, want %q", tt.header, got, tt.expected)
			}
		})
	}
}

func newTestApp(m *AuthMiddleware) *fiber.App {
	app := fiber.New()
	handler := func(c fiber.Ctx) error {
		if user, ok := c.Locals("user").(*models.User); ok {
			return c.SendString(user.Username)
		}
		return c.SendString("anonymous")
	}
	app.Get("/required", m.RequireAuth, handler)
	app.Get("/optional", m.OptionalAuth, handler)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	m := NewAuthMiddleware(&fakeAuthenticator{
		users: map[string]*models.User{"good": {ID: 1, Username: "chef"}},
	})
	app := newTestApp(m)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "required without token", path: "/required", status: fiber.StatusUnauthorized},
		{name: "required with bad token", path: "/required", header: "Token bad", status: fiber.StatusUnauthorized},
		{name: "required with good token", path: "/required", header: "Token good", status: fiber.StatusOK},
		{name: "optional without token", path: "/optional", status: fiber.StatusOK},
		{name: "optional with bad token", path: "/optional", header: "Bearer bad", status: fiber.StatusUnauthorized},
		{name: "optional with good token", path: "/optional", header: "Bearer good", status: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}

func TestAuthMiddleware_StoreFailure(t *testing.T) {
	m := NewAuthMiddleware(&fakeAuthenticator{err: errors.New("db down")})
	app := newTestApp(m)

	req, _ := http.NewRequest(http.MethodGet, "/required", nil)
	req.Header.Set("Authorization", "Token whatever")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusInternalServerError)
	}
}
