package db

import (
	"context"

	"foodgram/internal/models"
)

// GetCartIngredientLines returns one row per ingredient per recipe in the
// cart. Aggregation across recipes is left to the caller.
func (d *DB) GetCartIngredientLines(ctx context.Context, cartID int64) ([]models.CartIngredientLine, error) {
	rows, err := d.q.Query(ctx, `
		SELECT ri.recipe_id, i.name, i.measurement_unit, ri.amount
		FROM cart_recipes cr
		JOIN recipe_ingredients ri ON ri.recipe_id = cr.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE cr.cart_id = $1
		ORDER BY cr.recipe_id, ri.id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.CartIngredientLine{}
	for rows.Next() {
		var line models.CartIngredientLine
		if err := rows.Scan(&line.RecipeID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
