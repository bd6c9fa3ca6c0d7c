package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"foodgram/internal/models"
)

func scanShortLink(row pgx.Row) (*models.ShortLink, error) {
	var link models.ShortLink
	err := row.Scan(&link.RecipeID, &link.Code, &link.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShortLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetShortLinkByRecipe returns the short link of a recipe.
func (d *DB) GetShortLinkByRecipe(ctx context.Context, recipeID int64) (*models.ShortLink, error) {
	return scanShortLink(d.q.QueryRow(ctx,
		`SELECT recipe_id, code, created_at FROM short_links WHERE recipe_id = $1`, recipeID))
}

// GetShortLinkByCode looks a short link up by its code.
func (d *DB) GetShortLinkByCode(ctx context.Context, code string) (*models.ShortLink, error) {
	return scanShortLink(d.q.QueryRow(ctx,
		`SELECT recipe_id, code, created_at FROM short_links WHERE code = $1`, code))
}

// CreateShortLink stores a code for a recipe. It returns
// ErrDuplicateShortLink when the code or the recipe is already taken; the
// statement does not abort an enclosing transaction in that case.
func (d *DB) CreateShortLink(ctx context.Context, recipeID int64, code string) (*models.ShortLink, error) {
	link, err := scanShortLink(d.q.QueryRow(ctx, `
		INSERT INTO short_links (recipe_id, code) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING recipe_id, code, created_at
	`, recipeID, code))
	if errors.Is(err, ErrShortLinkNotFound) {
		return nil, ErrDuplicateShortLink
	}
	if isForeignKeyViolation(err) {
		return nil, ErrRecipeNotFound
	}
	return link, err
}
