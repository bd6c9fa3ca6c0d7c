package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/auth"
	"foodgram/internal/models"
)

// Authenticator resolves an API token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware authenticates requests by their Authorization header.
type AuthMiddleware struct {
	tokens Authenticator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(tokens Authenticator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid token.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	user, err := m.authenticate(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if user == nil {
		return unauthorized(c, nil)
	}
	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user when a token is sent, but allows anonymous
// requests. A token that is sent but invalid is still rejected.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	user, err := m.authenticate(c)
	if err != nil {
		return unauthorized(c, err)
	}
	if user != nil {
		c.Locals("user", user)
	}
	return c.Next()
}

// authenticate returns nil, nil when no token was sent.
func (m *AuthMiddleware) authenticate(c fiber.Ctx) (*models.User, error) {
	token := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return nil, nil
	}
	return m.tokens.Authenticate(c.Context(), token)
}

// tokenFromHeader accepts "Token <t>" and "Bearer <t>".
func tokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(c fiber.Ctx, err error) error {
	message := "authentication credentials were not provided"
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrTokenExpired):
		message = "token expired"
	case errors.Is(err, auth.ErrInvalidToken):
		message = "invalid token"
	default:
		slog.Error("token authentication failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error",
			"error":  "failed to authenticate",
		})
	}
	c.Set(fiber.HeaderWWWAuthenticate, "Token")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
