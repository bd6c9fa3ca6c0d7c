// Package shoppinglist sums the ingredients of every recipe in a cart and
// renders the result as a downloadable document.
package shoppinglist

import (
	"context"
	"sort"
	"time"

	"foodgram/internal/models"
)

// Item is one aggregated line of a shopping list.
type Item struct {
	Number int
	Name   string
	Unit   string
	Amount int64
}

// List is the result of one aggregation. It is built per request and never
// shared.
type List struct {
	Owner       string
	GeneratedAt time.Time
	Items       []Item
}

type itemKey struct {
	name string
	unit string
}

// Aggregate groups lines by (ingredient name, unit) and sums their amounts.
// Items are ordered by name, then unit, and numbered from 1.
func Aggregate(owner string, lines []models.CartIngredientLine, now time.Time) List {
	totals := make(map[itemKey]int64, len(lines))
	for _, line := range lines {
		totals[itemKey{line.Name, line.MeasurementUnit}] += line.Amount
	}

	items := make([]Item, 0, len(totals))
	for k, amount := range totals {
		items = append(items, Item{Name: k.name, Unit: k.unit, Amount: amount})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})
	for i := range items {
		items[i].Number = i + 1
	}

	return List{Owner: owner, GeneratedAt: now, Items: items}
}

// CartStore reads a user's cart contents.
type CartStore interface {
	GetCartByOwner(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartIngredientLines(ctx context.Context, cartID int64) ([]models.CartIngredientLine, error)
}

// Build aggregates the cart owned by user.
func Build(ctx context.Context, store CartStore, user *models.User, now time.Time) (List, error) {
	cart, err := store.GetCartByOwner(ctx, user.ID)
	if err != nil {
		return List{}, err
	}
	lines, err := store.GetCartIngredientLines(ctx, cart.ID)
	if err != nil {
		return List{}, err
	}
	return Aggregate(user.Username, lines, now), nil
}
