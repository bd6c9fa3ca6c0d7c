package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"foodgram/internal/auth"
	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/membership"
	"foodgram/internal/models"
	"foodgram/internal/recipes"
	"foodgram/internal/storage"
	"foodgram/internal/validation"
)

// UserHandler handles accounts, avatars and subscriptions via JSON API.
type UserHandler struct {
	db      *db.DB
	cfg     *config.Config
	recipes *recipes.Service
	storage storage.Storage
}

// NewUserHandler creates a new API user handler.
func NewUserHandler(database *db.DB, cfg *config.Config, recipeService *recipes.Service, store storage.Storage) *UserHandler {
	return &UserHandler{db: database, cfg: cfg, recipes: recipeService, storage: store}
}

type registeredUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account together with its shopping cart.
func (h *UserHandler) Register(c fiber.Ctx) error {
	var body validation.RegisterInput
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.ValidateRegistration(body); err != nil {
		return handleError(c, err, "failed to register user")
	}

	usernameTaken, emailTaken, err := h.db.FindUserConflicts(c.Context(), body.Username, body.Email)
	if err != nil {
		return handleError(c, err, "failed to register user")
	}
	verr := &validation.Error{}
	if usernameTaken {
		verr.Add("username", "A user with that username already exists.")
	}
	if emailTaken {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := verr.Err(); err != nil {
		return handleError(c, err, "failed to register user")
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		return handleError(c, err, "failed to register user")
	}
	user := &models.User{
		Email:        body.Email,
		Username:     body.Username,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		PasswordHash: hash,
	}
	if err := h.db.CreateUser(c.Context(), user); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateUsername):
			return jsonValidationError(c, validation.NewError("username", "A user with that username already exists."))
		case errors.Is(err, db.ErrDuplicateEmail):
			return jsonValidationError(c, validation.NewError("email", "A user with that email already exists."))
		}
		return handleError(c, err, "failed to register user")
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return jsonCreated(c, registeredUser{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// List returns a page of users.
func (h *UserHandler) List(c fiber.Ctx) error {
	page, limit := pagination(c, h.cfg.PageSize)
	users, total, err := h.db.ListUsers(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return handleError(c, err, "failed to fetch users")
	}

	viewer := currentUser(c)
	views := make([]models.UserView, len(users))
	for i := range users {
		if views[i], err = h.recipes.UserView(c.Context(), viewer, &users[i]); err != nil {
			return handleError(c, err, "failed to fetch users")
		}
	}
	return jsonSuccess(c, newPage(c, views, total, page, limit))
}

// Get returns a single user.
func (h *UserHandler) Get(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.db.GetUserByID(c.Context(), id)
	if err != nil {
		return handleError(c, err, "failed to fetch user")
	}
	view, err := h.recipes.UserView(c.Context(), currentUser(c), user)
	if err != nil {
		return handleError(c, err, "failed to fetch user")
	}
	return jsonSuccess(c, view)
}

// Me returns the current user.
func (h *UserHandler) Me(c fiber.Ctx) error {
	user := currentUser(c)
	view, err := h.recipes.UserView(c.Context(), user, user)
	if err != nil {
		return handleError(c, err, "failed to fetch user")
	}
	return jsonSuccess(c, view)
}

// SetAvatar replaces the current user's avatar with a base64 image.
func (h *UserHandler) SetAvatar(c fiber.Ctx) error {
	var body struct {
		Avatar string `json:"avatar"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Avatar == "" {
		return jsonValidationError(c, validation.NewError("avatar", "This field is required."))
	}
	img, err := validation.DecodeImage(body.Avatar, h.cfg.MaxImageSize)
	if err != nil {
		return jsonValidationError(c, validation.NewError("avatar", err.Error()))
	}

	user := currentUser(c)
	key, err := h.storage.Save(c.Context(), storage.AvatarsDir, img.Data, img.Ext, img.ContentType)
	if err != nil {
		return handleError(c, err, "failed to store avatar")
	}
	if err := h.db.UpdateUserAvatar(c.Context(), user.ID, &key); err != nil {
		h.discard(c, key)
		return handleError(c, err, "failed to store avatar")
	}
	if user.Avatar != nil {
		h.discard(c, *user.Avatar)
	}

	return jsonSuccess(c, models.AvatarResponse{Avatar: h.storage.URL(key)})
}

// DeleteAvatar clears the current user's avatar.
func (h *UserHandler) DeleteAvatar(c fiber.Ctx) error {
	user := currentUser(c)
	if err := h.db.UpdateUserAvatar(c.Context(), user.ID, nil); err != nil {
		return handleError(c, err, "failed to delete avatar")
	}
	if user.Avatar != nil {
		h.discard(c, *user.Avatar)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPassword changes the current user's password after checking the old one.
func (h *UserHandler) SetPassword(c fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user := currentUser(c)
	verr := &validation.Error{}
	if body.CurrentPassword == "" {
		verr.Add("current_password", "This field is required.")
	} else if !auth.CheckPassword(user.PasswordHash, body.CurrentPassword) {
		verr.Add("current_password", "Invalid password.")
	}
	if msg := validation.ValidatePassword(body.NewPassword); msg != "" {
		verr.Add("new_password", msg)
	}
	if err := verr.Err(); err != nil {
		return handleError(c, err, "failed to set password")
	}

	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		return handleError(c, err, "failed to set password")
	}
	if err := h.db.UpdateUserPassword(c.Context(), user.ID, hash); err != nil {
		return handleError(c, err, "failed to set password")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Subscriptions returns a page of authors the current user follows.
func (h *UserHandler) Subscriptions(c fiber.Ctx) error {
	user := currentUser(c)
	page, limit := pagination(c, h.cfg.PageSize)

	authors, total, err := h.db.ListSubscriptions(c.Context(), user.ID, limit, (page-1)*limit)
	if err != nil {
		return handleError(c, err, "failed to fetch subscriptions")
	}
	subs, err := h.recipes.Subscriptions(c.Context(), user, authors, recipesLimit(c))
	if err != nil {
		return handleError(c, err, "failed to fetch subscriptions")
	}
	return jsonSuccess(c, newPage(c, subs, total, page, limit))
}

// Subscribe follows (POST) or unfollows (DELETE) an author.
func (h *UserHandler) Subscribe(c fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}
	if _, err := h.db.GetUserByID(c.Context(), id); err != nil {
		return handleError(c, err, "failed to fetch user")
	}

	user := currentUser(c)
	t := membership.Toggle[models.Subscription]{
		Relation:   membership.Subscriptions(h.db),
		Serialize:  subscriptionSerializer(h.recipes, user, recipesLimit(c)),
		RejectSelf: true,
	}
	return applyToggle(c, t, user.ID, id)
}

// recipesLimit reads ?recipes_limit=; missing, invalid or negative means no
// cap, and 0 lists no recipes.
func recipesLimit(c fiber.Ctx) int {
	n, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || n < 0 {
		return recipes.Unlimited
	}
	return n
}

func (h *UserHandler) discard(c fiber.Ctx, key string) {
	if err := h.storage.Delete(c.Context(), key); err != nil {
		slog.Error("failed to delete avatar", "key", key, "error", err)
	}
}
