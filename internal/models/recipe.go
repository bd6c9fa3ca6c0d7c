package models

import (
	"time"
)

// Recipe is a recipe row owned by its author.
type Recipe struct {
	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	Name        string    `json:"name"`
	Text        string    `json:"text"`
	CookingTime int       `json:"cooking_time"`
	Image       string    `json:"image"` // storage key
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeIngredient is a (recipe, ingredient) pair with its amount.
type RecipeIngredient struct {
	RecipeID     int64 `json:"-"`
	IngredientID int64 `json:"ingredient_id"`
	Amount       int   `json:"amount"`
}

// IngredientAmount is an ingredient as it appears on a recipe.
type IngredientAmount struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeDetail is the full representation of a recipe for a given viewer.
type RecipeDetail struct {
	ID               int64              `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           UserView           `json:"author"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeMinified is the stripped-down recipe view used by favorites,
// the cart and subscription listings.
type RecipeMinified struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// RecipeFilter narrows a recipe listing.
type RecipeFilter struct {
	AuthorID    *int64
	TagSlugs    []string
	FavoritedBy *int64 // user id
	InCartOf    *int64 // user id
	Limit       int
	Offset      int
}

// ShortLink maps a generated code to a recipe.
type ShortLink struct {
	RecipeID  int64     `json:"recipe_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
