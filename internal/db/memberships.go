package db

import (
	"context"

	"foodgram/internal/models"
)

// membershipErr maps constraint failures of a membership insert to the
// package sentinels.
func membershipErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := isUniqueViolation(err); ok {
		return ErrAlreadyMember
	}
	if isForeignKeyViolation(err) {
		return ErrMissingReference
	}
	if isCheckViolation(err) {
		return ErrSelfSubscription
	}
	return err
}

func (d *DB) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	err := d.q.QueryRow(ctx, `SELECT EXISTS (`+query+`)`, args...).Scan(&ok)
	return ok, err
}

func (d *DB) deleteMember(ctx context.Context, query string, args ...any) error {
	result, err := d.q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

// FavoriteExists reports whether the recipe is in the user's favorites.
func (d *DB) FavoriteExists(ctx context.Context, userID, recipeID int64) (bool, error) {
	return d.exists(ctx, `SELECT 1 FROM favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
}

// AddFavorite adds a recipe to the user's favorites.
func (d *DB) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	_, err := d.q.Exec(ctx, `INSERT INTO favorites (user_id, recipe_id) VALUES ($1, $2)`, userID, recipeID)
	return membershipErr(err)
}

// RemoveFavorite removes a recipe from the user's favorites.
func (d *DB) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return d.deleteMember(ctx, `DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
}

// CartRecipeExists reports whether the recipe is in the cart.
func (d *DB) CartRecipeExists(ctx context.Context, cartID, recipeID int64) (bool, error) {
	return d.exists(ctx, `SELECT 1 FROM cart_recipes WHERE cart_id = $1 AND recipe_id = $2`, cartID, recipeID)
}

// AddCartRecipe puts a recipe into the cart.
func (d *DB) AddCartRecipe(ctx context.Context, cartID, recipeID int64) error {
	_, err := d.q.Exec(ctx, `INSERT INTO cart_recipes (cart_id, recipe_id) VALUES ($1, $2)`, cartID, recipeID)
	return membershipErr(err)
}

// RemoveCartRecipe takes a recipe out of the cart.
func (d *DB) RemoveCartRecipe(ctx context.Context, cartID, recipeID int64) error {
	return d.deleteMember(ctx, `DELETE FROM cart_recipes WHERE cart_id = $1 AND recipe_id = $2`, cartID, recipeID)
}

// RecipeInUserCart reports whether the recipe is in the cart owned by userID.
func (d *DB) RecipeInUserCart(ctx context.Context, userID, recipeID int64) (bool, error) {
	return d.exists(ctx, `
		SELECT 1 FROM cart_recipes cr JOIN carts c ON c.id = cr.cart_id
		WHERE c.owner_id = $1 AND cr.recipe_id = $2
	`, userID, recipeID)
}

// SubscriptionExists reports whether userID follows authorID.
func (d *DB) SubscriptionExists(ctx context.Context, userID, authorID int64) (bool, error) {
	return d.exists(ctx, `SELECT 1 FROM subscriptions WHERE user_id = $1 AND author_id = $2`, userID, authorID)
}

// AddSubscription makes userID follow authorID.
func (d *DB) AddSubscription(ctx context.Context, userID, authorID int64) error {
	_, err := d.q.Exec(ctx, `INSERT INTO subscriptions (user_id, author_id) VALUES ($1, $2)`, userID, authorID)
	return membershipErr(err)
}

// RemoveSubscription makes userID stop following authorID.
func (d *DB) RemoveSubscription(ctx context.Context, userID, authorID int64) error {
	return d.deleteMember(ctx, `DELETE FROM subscriptions WHERE user_id = $1 AND author_id = $2`, userID, authorID)
}

// ListSubscriptions returns a page of authors followed by userID, ordered by
// username, plus the total count.
func (d *DB) ListSubscriptions(ctx context.Context, userID int64, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := d.q.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := d.q.Query(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.avatar,
			u.is_active, u.token_version, u.created_at, u.updated_at
		FROM subscriptions s
		JOIN users u ON u.id = s.author_id
		WHERE s.user_id = $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	users, err := scanUsers(rows)
	return users, total, err
}
