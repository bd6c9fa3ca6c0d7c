package membership

import (
	"context"
	"errors"

	"foodgram/internal/db"
)

// Store is the database surface used by the relations.
type Store interface {
	FavoriteExists(ctx context.Context, userID, recipeID int64) (bool, error)
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error

	CartRecipeExists(ctx context.Context, cartID, recipeID int64) (bool, error)
	AddCartRecipe(ctx context.Context, cartID, recipeID int64) error
	RemoveCartRecipe(ctx context.Context, cartID, recipeID int64) error

	SubscriptionExists(ctx context.Context, userID, authorID int64) (bool, error)
	AddSubscription(ctx context.Context, userID, authorID int64) error
	RemoveSubscription(ctx context.Context, userID, authorID int64) error
}

type relation struct {
	name   string
	exists func(ctx context.Context, containerID, itemID int64) (bool, error)
	add    func(ctx context.Context, containerID, itemID int64) error
	remove func(ctx context.Context, containerID, itemID int64) error
}

func (r relation) Name() string { return r.name }

func (r relation) Exists(ctx context.Context, containerID, itemID int64) (bool, error) {
	return r.exists(ctx, containerID, itemID)
}

// Add maps a lost insert race to ErrAlreadyExists.
func (r relation) Add(ctx context.Context, containerID, itemID int64) error {
	return mapStoreErr(r.add(ctx, containerID, itemID))
}

// Remove maps a lost delete race to ErrNotFound.
func (r relation) Remove(ctx context.Context, containerID, itemID int64) error {
	return mapStoreErr(r.remove(ctx, containerID, itemID))
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, db.ErrAlreadyMember):
		return ErrAlreadyExists
	case errors.Is(err, db.ErrNotMember):
		return ErrNotFound
	case errors.Is(err, db.ErrSelfSubscription):
		return ErrInvalidSelfReference
	}
	return err
}

// Favorites relates a user (container) to recipes (items).
func Favorites(s Store) Relation {
	return relation{name: "favorite", exists: s.FavoriteExists, add: s.AddFavorite, remove: s.RemoveFavorite}
}

// Cart relates a cart (container) to recipes (items).
func Cart(s Store) Relation {
	return relation{name: "cart", exists: s.CartRecipeExists, add: s.AddCartRecipe, remove: s.RemoveCartRecipe}
}

// Subscriptions relates a user (container) to followed authors (items).
func Subscriptions(s Store) Relation {
	return relation{name: "subscription", exists: s.SubscriptionExists, add: s.AddSubscription, remove: s.RemoveSubscription}
}
