// Package recipes implements recipe creation, editing and the read views
// served by the API.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"foodgram/internal/db"
	"foodgram/internal/models"
	"foodgram/internal/shortlink"
	"foodgram/internal/storage"
	"foodgram/internal/validation"
)

var ErrPermissionDenied = errors.New("you do not have permission to perform this action")

// Service owns recipe writes and builds recipe and author views.
type Service struct {
	db      *db.DB
	storage storage.Storage
	links   *shortlink.Service
	rules   validation.RecipeRules
}

// NewService wires the recipe service.
func NewService(database *db.DB, store storage.Storage, links *shortlink.Service, rules validation.RecipeRules) *Service {
	return &Service{db: database, storage: store, links: links, rules: rules}
}

// Create validates in and stores the recipe, its ingredients, its tags and
// its short link in one transaction. The image is uploaded first and
// removed again if the transaction fails.
func (s *Service) Create(ctx context.Context, author *models.User, in validation.RecipeInput) (*models.RecipeDetail, error) {
	img, err := validation.ValidateRecipe(in, s.rules, false)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	key, err := s.storage.Save(ctx, storage.RecipeImagesDir, img.Data, img.Ext, img.ContentType)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        *in.Name,
		Text:        *in.Text,
		CookingTime: *in.CookingTime,
		Image:       key,
	}
	err = s.db.WithTx(ctx, func(tx *db.DB) error {
		if err := tx.InsertRecipe(ctx, recipe); err != nil {
			return err
		}
		if err := tx.ReplaceRecipeIngredients(ctx, recipe.ID, toRecipeIngredients(in.Ingredients)); err != nil {
			return err
		}
		if err := tx.ReplaceRecipeTags(ctx, recipe.ID, in.Tags); err != nil {
			return err
		}
		_, err := s.links.WithStore(tx).Create(ctx, recipe.ID)
		return err
	})
	if err != nil {
		s.discard(ctx, key)
		return nil, mapWriteErr(err)
	}

	slog.Info("recipe created", "recipe_id", recipe.ID, "author_id", author.ID)
	return s.Get(ctx, recipe.ID, author)
}

// Update patches the recipe. Present tags and ingredients replace the
// current ones wholesale; other fields are updated only when present.
func (s *Service) Update(ctx context.Context, user *models.User, id int64, in validation.RecipeInput) (*models.RecipeDetail, error) {
	recipe, err := s.db.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != user.ID {
		return nil, ErrPermissionDenied
	}

	img, err := validation.ValidateRecipe(in, s.rules, true)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	if img != nil {
		key, err := s.storage.Save(ctx, storage.RecipeImagesDir, img.Data, img.Ext, img.ContentType)
		if err != nil {
			return nil, err
		}
		recipe.Image = key
	}
	if in.Name != nil {
		recipe.Name = *in.Name
	}
	if in.Text != nil {
		recipe.Text = *in.Text
	}
	if in.CookingTime != nil {
		recipe.CookingTime = *in.CookingTime
	}

	err = s.db.WithTx(ctx, func(tx *db.DB) error {
		if err := tx.UpdateRecipe(ctx, recipe); err != nil {
			return err
		}
		if in.Ingredients != nil {
			if err := tx.ReplaceRecipeIngredients(ctx, recipe.ID, toRecipeIngredients(in.Ingredients)); err != nil {
				return err
			}
		}
		if in.Tags != nil {
			return tx.ReplaceRecipeTags(ctx, recipe.ID, in.Tags)
		}
		return nil
	})
	if err != nil {
		if img != nil {
			s.discard(ctx, recipe.Image)
		}
		return nil, mapWriteErr(err)
	}
	if img != nil {
		s.discard(ctx, oldImage)
	}

	return s.Get(ctx, recipe.ID, user)
}

// Delete removes a recipe owned by user together with its image.
func (s *Service) Delete(ctx context.Context, user *models.User, id int64) error {
	recipe, err := s.db.GetRecipeByID(ctx, id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != user.ID {
		return ErrPermissionDenied
	}

	link, err := s.db.GetShortLinkByRecipe(ctx, id)
	if err != nil && !errors.Is(err, db.ErrShortLinkNotFound) {
		return err
	}
	if err := s.db.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	if link != nil {
		s.links.Forget(link.Code)
	}
	s.discard(ctx, recipe.Image)

	slog.Info("recipe deleted", "recipe_id", id, "author_id", user.ID)
	return nil
}

// checkReferences reports unknown ingredient and tag ids as field errors.
func (s *Service) checkReferences(ctx context.Context, in validation.RecipeInput) error {
	verr := &validation.Error{}

	if len(in.Ingredients) > 0 {
		ids := make([]int64, len(in.Ingredients))
		for i, item := range in.Ingredients {
			ids[i] = item.ID
		}
		missing, err := s.db.MissingIngredientIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range missing {
			verr.Add("ingredients", fmt.Sprintf("Ingredient %d does not exist.", id))
		}
	}

	if len(in.Tags) > 0 {
		missing, err := s.db.MissingTagIDs(ctx, in.Tags)
		if err != nil {
			return err
		}
		for _, id := range missing {
			verr.Add("tags", fmt.Sprintf("Tag %d does not exist.", id))
		}
	}

	return verr.Err()
}

// discard deletes a stored image that is no longer referenced.
func (s *Service) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Error("failed to delete recipe image", "key", key, "error", err)
	}
}

// mapWriteErr turns expected constraint failures into field errors.
// Anything else is returned unchanged.
func mapWriteErr(err error) error {
	switch {
	case errors.Is(err, db.ErrDuplicateIngredient):
		return validation.NewError("ingredients", "An ingredient is listed more than once.")
	case errors.Is(err, db.ErrInvalidRecipeReference):
		return validation.NewError("non_field_errors", "The recipe references a missing tag or ingredient.")
	}
	return err
}

func toRecipeIngredients(items []validation.IngredientInput) []models.RecipeIngredient {
	out := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		out[i] = models.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount}
	}
	return out
}
