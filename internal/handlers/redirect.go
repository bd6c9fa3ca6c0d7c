package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/config"
	"foodgram/internal/shortlink"
)

// Resolver maps short codes to recipe pages.
type Resolver interface {
	Resolve(ctx context.Context, code string) (int64, error)
	RecipeURL(recipeID int64) string
}

// RedirectHandler handles short-link redirects.
type RedirectHandler struct {
	links Resolver
	cfg   *config.Config
}

// NewRedirectHandler creates a new redirect handler.
func NewRedirectHandler(links Resolver, cfg *config.Config) *RedirectHandler {
	return &RedirectHandler{links: links, cfg: cfg}
}

// Redirect looks up a short code and redirects to the recipe page.
func (h *RedirectHandler) Redirect(c fiber.Ctx) error {
	code := c.Params("code")

	recipeID, err := h.links.Resolve(c.Context(), code)
	if err != nil {
		if errors.Is(err, shortlink.ErrNotFound) {
			return renderError(c, h.cfg, fiber.StatusNotFound, "Not Found",
				"The link '"+code+"' does not exist.")
		}
		return err
	}

	return c.Redirect().Status(fiber.StatusFound).To(h.links.RecipeURL(recipeID))
}
