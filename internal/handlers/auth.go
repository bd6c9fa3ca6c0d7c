package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"foodgram/internal/auth"
	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/models"
	"foodgram/internal/validation"
)

// AuthHandler handles the optional OIDC login flow. A successful callback
// answers with an API token, the same as password login.
type AuthHandler struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	db           *db.DB
	tokens       *auth.Service
	cfg          *config.Config
}

// NewAuthHandler creates a new auth handler with OIDC configuration.
func NewAuthHandler(ctx context.Context, cfg *config.Config, database *db.DB, tokens *auth.Service) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, err
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})

	return &AuthHandler{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     verifier,
		db:           database,
		tokens:       tokens,
		cfg:          cfg,
	}, nil
}

// Login initiates the OIDC login flow.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state := generateState()

	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}
	sess.Set("oauth_state", state)

	return c.Redirect().To(h.oauth2Config.AuthCodeURL(state))
}

// Callback verifies the provider's answer, finds or creates the user by
// email and returns an API token.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}

	savedState, _ := sess.Get("oauth_state").(string)
	if savedState == "" || savedState != c.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete("oauth_state")

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "missing id_token")
	}

	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id_token")
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return err
	}

	// Some providers only put the email in the userinfo response.
	if claims.Email == "" {
		userInfo, err := h.provider.UserInfo(c.Context(), oauth2.StaticTokenSource(oauth2Token))
		if err != nil {
			slog.Warn("failed to fetch userinfo", "error", err)
		} else if err := userInfo.Claims(&claims); err != nil {
			slog.Warn("failed to decode userinfo claims", "error", err)
		}
	}
	if claims.Email == "" || (claims.EmailVerified != nil && !*claims.EmailVerified) {
		return fiber.NewError(fiber.StatusForbidden, "a verified email address is required")
	}

	user, err := h.findOrCreateUser(c.Context(), claims)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return fiber.NewError(fiber.StatusForbidden, "account is disabled")
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}

	slog.Info("oidc login", "user_id", user.ID, "subject", idToken.Subject)
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   models.TokenResponse{AuthToken: token},
	})
}

type oidcClaims struct {
	Email             string `json:"email"`
	EmailVerified     *bool  `json:"email_verified"`
	PreferredUsername string `json:"preferred_username"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Name              string `json:"name"`
}

// usernameAttempts bounds retries on username collisions.
const usernameAttempts = 3

func (h *AuthHandler) findOrCreateUser(ctx context.Context, claims oidcClaims) (*models.User, error) {
	user, err := h.db.GetUserByEmail(ctx, claims.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return nil, err
	}

	// OIDC accounts get a random password.
	hash, err := auth.HashPassword(generateState())
	if err != nil {
		return nil, err
	}

	first, last := claims.GivenName, claims.FamilyName
	if first == "" && last == "" {
		first, last, _ = strings.Cut(claims.Name, " ")
	}

	base := usernameFromClaims(claims)
	username := base
	for attempt := 1; ; attempt++ {
		user = &models.User{
			Email:        claims.Email,
			Username:     username,
			FirstName:    orDefault(first, username),
			LastName:     orDefault(last, "-"),
			PasswordHash: hash,
		}
		err = h.db.CreateUser(ctx, user)
		if !errors.Is(err, db.ErrDuplicateUsername) || attempt == usernameAttempts {
			break
		}
		username = base + "-" + uuid.NewString()[:8]
	}
	if errors.Is(err, db.ErrDuplicateEmail) {
		// Created concurrently by another callback.
		return h.db.GetUserByEmail(ctx, claims.Email)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("user created from oidc login", "user_id", user.ID, "username", user.Username)
	return user, nil
}

var usernameInvalidChars = regexp.MustCompile(`[^\w.@+-]+`)

// usernameFromClaims picks preferred_username when it is a valid username,
// otherwise a sanitized local part of the email.
func usernameFromClaims(claims oidcClaims) string {
	if validation.ValidateUsername(claims.PreferredUsername) == "" {
		return claims.PreferredUsername
	}

	local, _, _ := strings.Cut(claims.Email, "@")
	name := usernameInvalidChars.ReplaceAllString(local, "_")
	if len(name) > validation.MaxNameLength-9 {
		name = name[:validation.MaxNameLength-9]
	}
	if validation.ValidateUsername(name) != "" {
		return "user"
	}
	return name
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
