package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"foodgram/internal/models"
)

// likeEscaper escapes LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListIngredients returns catalog ingredients, optionally only those whose
// name starts with prefix.
func (d *DB) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := psql.Select("id", "name", "measurement_unit").From("ingredients").OrderBy("name")
	if prefix != "" {
		query = query.Where("name LIKE ?", likeEscaper.Replace(prefix)+"%")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

// GetIngredientByID retrieves an ingredient by id.
func (d *DB) GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := d.q.QueryRow(ctx, `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id).
		Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// InsertIngredientIfAbsent adds an ingredient unless one with the same name
// exists. It reports whether a row was inserted.
func (d *DB) InsertIngredientIfAbsent(ctx context.Context, name, unit string) (bool, error) {
	result, err := d.q.Exec(ctx, `
		INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, name, unit)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// MissingIngredientIDs returns the ids from the input that do not exist.
func (d *DB) MissingIngredientIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return missingIDs(ctx, d.q, `SELECT id FROM ingredients WHERE id = ANY($1)`, ids)
}
