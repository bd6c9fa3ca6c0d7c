package api

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/auth"
	"foodgram/internal/db"
	"foodgram/internal/models"
	"foodgram/internal/validation"
)

// TokenHandler issues and revokes API tokens.
type TokenHandler struct {
	db     *db.DB
	tokens *auth.Service
}

// NewTokenHandler creates a new token handler.
func NewTokenHandler(database *db.DB, tokens *auth.Service) *TokenHandler {
	return &TokenHandler{db: database, tokens: tokens}
}

// Login exchanges an email and password for a token.
func (h *TokenHandler) Login(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	verr := &validation.Error{}
	if strings.TrimSpace(body.Email) == "" {
		verr.Add("email", "This field is required.")
	}
	if body.Password == "" {
		verr.Add("password", "This field is required.")
	}
	if err := verr.Err(); err != nil {
		return handleError(c, err, "failed to log in")
	}

	token, err := h.tokens.Login(c.Context(), strings.TrimSpace(body.Email), body.Password)
	if err != nil {
		return handleError(c, err, "failed to log in")
	}
	return jsonSuccess(c, models.TokenResponse{AuthToken: token})
}

// Logout revokes every token of the current user.
func (h *TokenHandler) Logout(c fiber.Ctx) error {
	if _, err := h.db.BumpTokenVersion(c.Context(), currentUser(c).ID); err != nil {
		return handleError(c, err, "failed to log out")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
