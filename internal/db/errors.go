package db

import "errors"

// Domain-level database error sentinels.
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("a user with this email already exists")
	ErrDuplicateUsername = errors.New("a user with this username already exists")

	// Cart errors
	ErrCartNotFound = errors.New("cart not found")

	// Catalog errors
	ErrTagNotFound        = errors.New("tag not found")
	ErrIngredientNotFound = errors.New("ingredient not found")

	// Recipe errors
	ErrRecipeNotFound         = errors.New("recipe not found")
	ErrDuplicateIngredient    = errors.New("ingredient is already part of the recipe")
	ErrInvalidRecipeReference = errors.New("recipe references a missing tag or ingredient")

	// Short link errors
	ErrShortLinkNotFound  = errors.New("short link not found")
	ErrDuplicateShortLink = errors.New("short link code or recipe already taken")

	// Membership errors
	ErrAlreadyMember    = errors.New("already a member of the collection")
	ErrNotMember        = errors.New("not a member of the collection")
	ErrSelfSubscription = errors.New("users cannot subscribe to themselves")
	ErrMissingReference = errors.New("referenced user or recipe does not exist")
)
