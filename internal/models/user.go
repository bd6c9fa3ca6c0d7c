package models

import (
	"time"
)

// User is a registered account. Email is the login identifier.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Avatar       *string   `json:"avatar"` // storage key, nil when unset
	IsActive     bool      `json:"-"`
	TokenVersion int       `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// UserView is the public representation of a user.
type UserView struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// Subscription is the extended user view returned for subscriptions:
// the author plus a count and a (possibly capped) list of their recipes.
type Subscription struct {
	UserView
	RecipesCount int              `json:"recipes_count"`
	Recipes      []RecipeMinified `json:"recipes"`
}

// Cart is a per-user collection of recipes for shopping-list aggregation.
type Cart struct {
	ID      int64 `json:"id"`
	OwnerID int64 `json:"owner_id"`
}
