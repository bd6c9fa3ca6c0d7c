package db

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"foodgram/internal/models"
)

// recipeColumns is the standard column list for recipe queries.
const recipeColumns = `id, author_id, name, text, cooking_time, image, is_active, created_at`

// scanRecipe scans a row into a Recipe struct.
func scanRecipe(row pgx.Row) (*models.Recipe, error) {
	var r models.Recipe
	err := row.Scan(
		&r.ID,
		&r.AuthorID,
		&r.Name,
		&r.Text,
		&r.CookingTime,
		&r.Image,
		&r.IsActive,
		&r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanRecipes scans multiple rows into a slice of Recipes.
func scanRecipes(rows pgx.Rows) ([]models.Recipe, error) {
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// InsertRecipe inserts the recipe row and fills in its generated fields.
func (d *DB) InsertRecipe(ctx context.Context, r *models.Recipe) error {
	err := d.q.QueryRow(ctx, `
		INSERT INTO recipes (author_id, name, text, cooking_time, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at
	`, r.AuthorID, r.Name, r.Text, r.CookingTime, r.Image).Scan(&r.ID, &r.IsActive, &r.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	return err
}

// UpdateRecipe writes every scalar column of the recipe.
func (d *DB) UpdateRecipe(ctx context.Context, r *models.Recipe) error {
	result, err := d.q.Exec(ctx, `
		UPDATE recipes SET name = $1, text = $2, cooking_time = $3, image = $4
		WHERE id = $5
	`, r.Name, r.Text, r.CookingTime, r.Image, r.ID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// DeleteRecipe removes a recipe; associations cascade.
func (d *DB) DeleteRecipe(ctx context.Context, id int64) error {
	result, err := d.q.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// GetRecipeByID retrieves an active recipe by id.
func (d *DB) GetRecipeByID(ctx context.Context, id int64) (*models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1 AND is_active`
	return scanRecipe(d.q.QueryRow(ctx, query, id))
}

// ReplaceRecipeIngredients deletes the recipe's ingredient rows and bulk
// inserts the given ones.
func (d *DB) ReplaceRecipeIngredients(ctx context.Context, recipeID int64, items []models.RecipeIngredient) error {
	if _, err := d.q.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	insert := psql.Insert("recipe_ingredients").Columns("recipe_id", "ingredient_id", "amount")
	for _, item := range items {
		insert = insert.Values(recipeID, item.IngredientID, item.Amount)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return err
	}

	_, err = d.q.Exec(ctx, sql, args...)
	if _, ok := isUniqueViolation(err); ok {
		return ErrDuplicateIngredient
	}
	if isForeignKeyViolation(err) {
		return ErrInvalidRecipeReference
	}
	return err
}

// ReplaceRecipeTags sets the recipe's tags to exactly tagIDs.
func (d *DB) ReplaceRecipeTags(ctx context.Context, recipeID int64, tagIDs []int64) error {
	if _, err := d.q.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, recipeID); err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}

	insert := psql.Insert("recipe_tags").Columns("recipe_id", "tag_id").Suffix("ON CONFLICT DO NOTHING")
	for _, id := range tagIDs {
		insert = insert.Values(recipeID, id)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return err
	}

	_, err = d.q.Exec(ctx, sql, args...)
	if isForeignKeyViolation(err) {
		return ErrInvalidRecipeReference
	}
	return err
}

// GetRecipeIngredients returns the ingredients of a recipe with amounts.
func (d *DB) GetRecipeIngredients(ctx context.Context, recipeID int64) ([]models.IngredientAmount, error) {
	rows, err := d.q.Query(ctx, `
		SELECT i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.id
	`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.IngredientAmount{}
	for rows.Next() {
		var item models.IngredientAmount
		if err := rows.Scan(&item.ID, &item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetRecipeTags returns the tags attached to a recipe.
func (d *DB) GetRecipeTags(ctx context.Context, recipeID int64) ([]models.Tag, error) {
	rows, err := d.q.Query(ctx, `
		SELECT t.id, t.name, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = $1
		ORDER BY t.name
	`, recipeID)
	if err != nil {
		return nil, err
	}
	return scanTags(rows)
}

// ListRecipes returns a filtered page of recipes, newest first, plus the
// total number of matches.
func (d *DB) ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]models.Recipe, int, error) {
	where := sq.And{sq.Eq{"r.is_active": true}}
	if filter.AuthorID != nil {
		where = append(where, sq.Eq{"r.author_id": *filter.AuthorID})
	}
	if len(filter.TagSlugs) > 0 {
		where = append(where, sq.Expr(`EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY(?))`, filter.TagSlugs))
	}
	if filter.FavoritedBy != nil {
		where = append(where, sq.Expr(`EXISTS (
			SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)`, *filter.FavoritedBy))
	}
	if filter.InCartOf != nil {
		where = append(where, sq.Expr(`EXISTS (
			SELECT 1 FROM cart_recipes cr JOIN carts c ON c.id = cr.cart_id
			WHERE cr.recipe_id = r.id AND c.owner_id = ?)`, *filter.InCartOf))
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("recipes r").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := d.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := psql.
		Select("r.id", "r.author_id", "r.name", "r.text", "r.cooking_time", "r.image", "r.is_active", "r.created_at").
		From("recipes r").
		Where(where).
		OrderBy("r.created_at DESC", "r.name")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := d.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	recipes, err := scanRecipes(rows)
	return recipes, total, err
}

// CountRecipesByAuthor returns how many active recipes a user has published.
func (d *DB) CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error) {
	var n int
	err := d.q.QueryRow(ctx, `SELECT COUNT(*) FROM recipes WHERE author_id = $1 AND is_active`, authorID).Scan(&n)
	return n, err
}

// ListRecipesByAuthor returns an author's active recipes, newest first. A
// negative limit means no limit.
func (d *DB) ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]models.Recipe, error) {
	query := psql.Select(recipeColumns).
		From("recipes").
		Where(sq.Eq{"author_id": authorID, "is_active": true}).
		OrderBy("created_at DESC", "name")
	if limit >= 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := d.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanRecipes(rows)
}
