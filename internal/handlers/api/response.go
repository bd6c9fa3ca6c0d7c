package api

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/auth"
	"foodgram/internal/db"
	"foodgram/internal/membership"
	"foodgram/internal/models"
	"foodgram/internal/recipes"
	"foodgram/internal/shoppinglist"
	"foodgram/internal/validation"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonCreated returns a 201 response with data wrapped in the standard envelope.
func jsonCreated(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// jsonValidationError returns a 400 response listing the failed fields.
func jsonValidationError(c fiber.Ctx, verr *validation.Error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status": "error",
		"error":  "validation failed",
		"fields": verr.Fields,
	})
}

// handleError maps domain errors to responses. Unknown errors are logged
// and reported as 500 with the fallback message.
func handleError(c fiber.Ctx, err error, fallback string) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return jsonValidationError(c, verr)
	}

	switch {
	case errors.Is(err, db.ErrRecipeNotFound):
		return jsonError(c, fiber.StatusNotFound, "recipe not found")
	case errors.Is(err, db.ErrUserNotFound):
		return jsonError(c, fiber.StatusNotFound, "user not found")
	case errors.Is(err, db.ErrTagNotFound):
		return jsonError(c, fiber.StatusNotFound, "tag not found")
	case errors.Is(err, db.ErrIngredientNotFound):
		return jsonError(c, fiber.StatusNotFound, "ingredient not found")
	case errors.Is(err, db.ErrMissingReference):
		return jsonError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, recipes.ErrPermissionDenied):
		return jsonError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, membership.ErrAlreadyExists):
		return jsonError(c, fiber.StatusBadRequest, "already added")
	case errors.Is(err, membership.ErrNotFound):
		return jsonError(c, fiber.StatusBadRequest, "not added")
	case errors.Is(err, membership.ErrInvalidSelfReference):
		return jsonError(c, fiber.StatusBadRequest, "you cannot subscribe to yourself")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, shoppinglist.ErrUnsupportedFormat):
		return jsonError(c, fiber.StatusBadRequest, "file_format must be one of txt, csv, pdf")
	}

	slog.Error(fallback, "method", c.Method(), "path", c.Path(), "error", err)
	return jsonError(c, fiber.StatusInternalServerError, fallback)
}

// currentUser returns the authenticated user, or nil.
func currentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// paramID parses a positive integer route parameter.
func paramID(c fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// maxPageSize caps the limit query parameter.
const maxPageSize = 100

// pagination reads page and limit query parameters. Invalid values fall
// back to the first page and the default size.
func pagination(c fiber.Ctx, defaultSize int) (page, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultSize
	}
	return page, min(limit, maxPageSize)
}

// newPage wraps results with the count and neighbour page links.
func newPage[T any](c fiber.Ctx, results []T, count, page, limit int) models.Page[T] {
	if results == nil {
		results = []T{}
	}
	p := models.Page[T]{Count: count, Results: results}
	if page*limit < count {
		next := pageURL(c, page+1)
		p.Next = &next
	}
	if page > 1 {
		prev := pageURL(c, page-1)
		p.Previous = &prev
	}
	return p
}

// pageURL is the current request URL with the page parameter replaced. The
// first page drops the parameter.
func pageURL(c fiber.Ctx, page int) string {
	query := url.Values{}
	for k, v := range c.Queries() {
		query.Set(k, v)
	}
	// Repeated keys (tags=a&tags=b) are not preserved by Queries.
	if tags := queryAll(c, "tags"); len(tags) > 1 {
		query["tags"] = tags
	}
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := c.BaseURL() + c.Path()
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// queryAll returns every value of a repeated query parameter.
func queryAll(c fiber.Ctx, key string) []string {
	raw := c.RequestCtx().QueryArgs().PeekMulti(key)
	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = string(v)
	}
	return values
}
