package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Error is a client-correctable failure addressed to request fields.
type Error struct {
	Fields map[string][]string
}

// NewError returns an Error with a single field message.
func NewError(field, msg string) *Error {
	e := &Error{}
	e.Add(field, msg)
	return e
}

// Add records msg against field.
func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns e, or nil when no field failed.
func (e *Error) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

const (
	MaxRecipeNameLength = 256
	MaxNameLength       = 150
	MaxEmailLength      = 254
	MaxPasswordLength   = 72
	MinPasswordLength   = 8
)

// UsernamePattern allows letters, digits and @/./+/-/_.
var UsernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// IngredientInput is one requested (ingredient, amount) pair.
type IngredientInput struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// RecipeInput is a create or update payload. Nil fields were absent from the
// request.
type RecipeInput struct {
	Name        *string           `json:"name"`
	Text        *string           `json:"text"`
	CookingTime *int              `json:"cooking_time"`
	Image       *string           `json:"image"`
	Ingredients []IngredientInput `json:"ingredients"`
	Tags        []int64           `json:"tags"`
}

// RecipeRules are the configurable limits applied to recipes.
type RecipeRules struct {
	MinCookingTime int
	MaxImageSize   int
}

// ValidateRecipe checks a create payload (partial false) or an update
// payload (partial true, absent fields are skipped). A decoded image is
// returned when one was supplied.
func ValidateRecipe(in RecipeInput, rules RecipeRules, partial bool) (*Image, error) {
	verr := &Error{}

	if in.Name != nil || !partial {
		name := deref(in.Name)
		switch {
		case strings.TrimSpace(name) == "":
			verr.Add("name", "This field is required.")
		case utf8.RuneCountInString(name) > MaxRecipeNameLength:
			verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxRecipeNameLength))
		}
	}

	if (in.Text != nil || !partial) && strings.TrimSpace(deref(in.Text)) == "" {
		verr.Add("text", "This field is required.")
	}

	if in.CookingTime != nil || !partial {
		switch {
		case in.CookingTime == nil:
			verr.Add("cooking_time", "This field is required.")
		case *in.CookingTime < rules.MinCookingTime:
			verr.Add("cooking_time", fmt.Sprintf("Cooking time must be at least %d.", rules.MinCookingTime))
		}
	}

	if in.Ingredients != nil || !partial {
		validateIngredients(verr, in.Ingredients)
	}
	if in.Tags != nil || !partial {
		validateTags(verr, in.Tags)
	}

	var img *Image
	if in.Image != nil || !partial {
		if deref(in.Image) == "" {
			verr.Add("image", "This field is required.")
		} else {
			decoded, err := DecodeImage(*in.Image, rules.MaxImageSize)
			if err != nil {
				verr.Add("image", err.Error())
			}
			img = decoded
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

func validateIngredients(verr *Error, items []IngredientInput) {
	if len(items) == 0 {
		verr.Add("ingredients", "At least one ingredient is required.")
		return
	}
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			verr.Add("ingredients", "Every ingredient needs an id.")
			continue
		}
		if item.Amount < 1 {
			verr.Add("ingredients", fmt.Sprintf("Amount of ingredient %d must be at least 1.", item.ID))
		}
		if seen[item.ID] {
			verr.Add("ingredients", fmt.Sprintf("Ingredient %d is listed more than once.", item.ID))
		}
		seen[item.ID] = true
	}
}

func validateTags(verr *Error, tags []int64) {
	if len(tags) == 0 {
		verr.Add("tags", "At least one tag is required.")
		return
	}
	seen := make(map[int64]bool, len(tags))
	for _, id := range tags {
		if seen[id] {
			verr.Add("tags", fmt.Sprintf("Tag %d is listed more than once.", id))
		}
		seen[id] = true
	}
}

// RegisterInput is a sign-up payload.
type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// ValidateRegistration checks a sign-up payload.
func ValidateRegistration(in RegisterInput) error {
	verr := &Error{}

	if msg := validateEmail(in.Email); msg != "" {
		verr.Add("email", msg)
	}
	if msg := ValidateUsername(in.Username); msg != "" {
		verr.Add("username", msg)
	}
	requiredName(verr, "first_name", in.FirstName)
	requiredName(verr, "last_name", in.LastName)
	if msg := ValidatePassword(in.Password); msg != "" {
		verr.Add("password", msg)
	}

	return verr.Err()
}

// ValidateUsername returns an error message, or "" if username is valid.
func ValidateUsername(username string) string {
	switch {
	case username == "":
		return "This field is required."
	case utf8.RuneCountInString(username) > MaxNameLength:
		return fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength)
	case !UsernamePattern.MatchString(username):
		return "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	case strings.EqualFold(username, "me"):
		return `"me" cannot be used as a username.`
	}
	return ""
}

// ValidatePassword returns an error message, or "" if password is acceptable.
func ValidatePassword(password string) string {
	switch {
	case password == "":
		return "This field is required."
	case len(password) < MinPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength)
	case len(password) > MaxPasswordLength:
		return fmt.Sprintf("Password must be at most %d characters.", MaxPasswordLength)
	}
	return ""
}

func validateEmail(email string) string {
	if email == "" {
		return "This field is required."
	}
	if len(email) > MaxEmailLength {
		return fmt.Sprintf("Ensure this field has no more than %d characters.", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Enter a valid email address."
	}
	return ""
}

func requiredName(verr *Error, field, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		verr.Add(field, "This field is required.")
	case utf8.RuneCountInString(value) > MaxNameLength:
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength))
	}
}

// ValidateTagSlug checks a slug from reference data.
func ValidateTagSlug(slug string) bool {
	return slug != "" && len(slug) <= 32 && slugPattern.MatchString(slug)
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if !slices.Contains([]string{"http", "https"}, scheme) {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
