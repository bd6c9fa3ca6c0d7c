package api

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/membership"
	"foodgram/internal/metrics"
	"foodgram/internal/models"
	"foodgram/internal/recipes"
	"foodgram/internal/shoppinglist"
	"foodgram/internal/shortlink"
	"foodgram/internal/validation"
)

// RecipeHandler serves recipes, their collections and the shopping list.
type RecipeHandler struct {
	db       *db.DB
	cfg      *config.Config
	recipes  *recipes.Service
	links    *shortlink.Service
	exporter *shoppinglist.Exporter
}

// NewRecipeHandler creates a new API recipe handler.
func NewRecipeHandler(database *db.DB, cfg *config.Config, recipeService *recipes.Service, links *shortlink.Service, exporter *shoppinglist.Exporter) *RecipeHandler {
	return &RecipeHandler{db: database, cfg: cfg, recipes: recipeService, links: links, exporter: exporter}
}

// List returns a filtered page of recipes.
func (h *RecipeHandler) List(c fiber.Ctx) error {
	user := currentUser(c)
	page, limit := pagination(c, h.cfg.PageSize)

	filter := models.RecipeFilter{
		TagSlugs: queryAll(c, "tags"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	if author, err := strconv.ParseInt(c.Query("author"), 10, 64); err == nil {
		filter.AuthorID = &author
	}
	// Collection filters only apply to authenticated viewers.
	if user != nil {
		if c.Query("is_favorited") == "1" {
			filter.FavoritedBy = &user.ID
		}
		if c.Query("is_in_shopping_cart") == "1" {
			filter.InCartOf = &user.ID
		}
	}

	results, total, err := h.recipes.List(c.Context(), filter, user)
	if err != nil {
		return handleError(c, err, "failed to fetch recipes")
	}
	return jsonSuccess(c, newPage(c, results, total, page, limit))
}

// Get returns a single recipe.
func (h *RecipeHandler) Get(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.recipes.Get(c.Context(), id, currentUser(c))
	if err != nil {
		return handleError(c, err, "failed to fetch recipe")
	}
	return jsonSuccess(c, recipe)
}

// Create stores a new recipe authored by the current user.
func (h *RecipeHandler) Create(c fiber.Ctx) error {
	var body validation.RecipeInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	recipe, err := h.recipes.Create(c.Context(), currentUser(c), body)
	if err != nil {
		return handleError(c, err, "failed to create recipe")
	}
	return jsonCreated(c, recipe)
}

// Update patches a recipe owned by the current user.
func (h *RecipeHandler) Update(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var body validation.RecipeInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	recipe, err := h.recipes.Update(c.Context(), currentUser(c), id, body)
	if err != nil {
		return handleError(c, err, "failed to update recipe")
	}
	return jsonSuccess(c, recipe)
}

// Delete removes a recipe owned by the current user.
func (h *RecipeHandler) Delete(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if err := h.recipes.Delete(c.Context(), currentUser(c), id); err != nil {
		return handleError(c, err, "failed to delete recipe")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetLink returns the short link of a recipe, creating it on first use.
func (h *RecipeHandler) GetLink(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipe id")
	}
	if _, err := h.db.GetRecipeByID(c.Context(), id); err != nil {
		return handleError(c, err, "failed to fetch recipe")
	}

	link, err := h.links.GetOrCreate(c.Context(), id)
	if err != nil {
		return handleError(c, err, "failed to create short link")
	}
	return jsonSuccess(c, models.ShortLinkResponse{ShortLink: h.links.URL(link.Code)})
}

// Favorite adds (POST) or removes (DELETE) a recipe from the user's
// favorites.
func (h *RecipeHandler) Favorite(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipe id")
	}
	if _, err := h.db.GetRecipeByID(c.Context(), id); err != nil {
		return handleError(c, err, "failed to fetch recipe")
	}

	t := membership.Toggle[models.RecipeMinified]{
		Relation:  membership.Favorites(h.db),
		Serialize: h.recipes.Minified,
	}
	return applyToggle(c, t, currentUser(c).ID, id)
}

// ShoppingCart adds (POST) or removes (DELETE) a recipe from the user's
// cart.
func (h *RecipeHandler) ShoppingCart(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid recipe id")
	}
	if _, err := h.db.GetRecipeByID(c.Context(), id); err != nil {
		return handleError(c, err, "failed to fetch recipe")
	}

	cart, err := h.db.GetCartByOwner(c.Context(), currentUser(c).ID)
	if err != nil {
		return handleError(c, err, "failed to fetch shopping cart")
	}

	t := membership.Toggle[models.RecipeMinified]{
		Relation:  membership.Cart(h.db),
		Serialize: h.recipes.Minified,
	}
	return applyToggle(c, t, cart.ID, id)
}

// DownloadShoppingCart renders the aggregated shopping list as an
// attachment.
func (h *RecipeHandler) DownloadShoppingCart(c fiber.Ctx) error {
	format, err := shoppinglist.ParseFormat(c.Query("file_format"))
	if err != nil {
		return handleError(c, err, "failed to render shopping list")
	}

	list, err := shoppinglist.Build(c.Context(), h.db, currentUser(c), time.Now())
	if err != nil {
		return handleError(c, err, "failed to build shopping list")
	}

	doc, err := h.exporter.Export(list, format)
	if err != nil {
		return handleError(c, err, "failed to render shopping list")
	}
	metrics.ShoppingListExports.WithLabelValues(string(format)).Inc()

	c.Attachment(doc.Filename)
	c.Set(fiber.HeaderContentType, doc.ContentType)
	return c.Send(doc.Body)
}

// applyToggle runs a membership toggle in the direction given by the HTTP
// method: 201 with the item on POST, 204 on DELETE.
func applyToggle[T any](c fiber.Ctx, t membership.Toggle[T], containerID, itemID int64) error {
	op := membership.Add
	if c.Method() == fiber.MethodDelete {
		op = membership.Remove
	}

	item, err := t.Apply(c.Context(), containerID, itemID, op)
	if err != nil {
		return handleError(c, err, "failed to update "+t.Relation.Name())
	}
	if op == membership.Remove {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return jsonCreated(c, item)
}

// subscriptionSerializer builds the extended author view for a toggle.
func subscriptionSerializer(svc *recipes.Service, viewer *models.User, recipesLimit int) func(ctx context.Context, authorID int64) (models.Subscription, error) {
	return func(ctx context.Context, authorID int64) (models.Subscription, error) {
		return svc.Subscription(ctx, viewer, authorID, recipesLimit)
	}
}
