package api

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/db"
	"foodgram/internal/models"
)

// CatalogHandler serves the read-only tag and ingredient catalog.
type CatalogHandler struct {
	db *db.DB
}

// NewCatalogHandler creates a new API catalog handler.
func NewCatalogHandler(database *db.DB) *CatalogHandler {
	return &CatalogHandler{db: database}
}

// ListTags returns every tag.
func (h *CatalogHandler) ListTags(c fiber.Ctx) error {
	tags, err := h.db.ListTags(c.Context())
	if err != nil {
		return handleError(c, err, "failed to fetch tags")
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return jsonSuccess(c, tags)
}

// GetTag returns a single tag.
func (h *CatalogHandler) GetTag(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid tag id")
	}

	tag, err := h.db.GetTagByID(c.Context(), id)
	if err != nil {
		return handleError(c, err, "failed to fetch tag")
	}
	return jsonSuccess(c, tag)
}

// ListIngredients returns ingredients, filtered by name prefix when ?name= is set.
func (h *CatalogHandler) ListIngredients(c fiber.Ctx) error {
	ingredients, err := h.db.ListIngredients(c.Context(), strings.TrimSpace(c.Query("name")))
	if err != nil {
		return handleError(c, err, "failed to fetch ingredients")
	}
	return jsonSuccess(c, ingredients)
}

// GetIngredient returns a single ingredient.
func (h *CatalogHandler) GetIngredient(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	ingredient, err := h.db.GetIngredientByID(c.Context(), id)
	if err != nil {
		return handleError(c, err, "failed to fetch ingredient")
	}
	return jsonSuccess(c, ingredient)
}
