package recipes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"foodgram/internal/models"
)

// maxParallelViews bounds concurrent detail lookups for one page.
const maxParallelViews = 4

// Get returns the detail view of a recipe as seen by viewer (nil when
// anonymous).
func (s *Service) Get(ctx context.Context, id int64, viewer *models.User) (*models.RecipeDetail, error) {
	recipe, err := s.db.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, recipe, viewer)
}

// List returns a page of recipe details and the total number of matches.
func (s *Service) List(ctx context.Context, filter models.RecipeFilter, viewer *models.User) ([]models.RecipeDetail, int, error) {
	recipes, total, err := s.db.ListRecipes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	details := make([]models.RecipeDetail, len(recipes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelViews)
	for i := range recipes {
		g.Go(func() error {
			d, err := s.detail(gctx, &recipes[i], viewer)
			if err != nil {
				return err
			}
			details[i] = *d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (s *Service) detail(ctx context.Context, recipe *models.Recipe, viewer *models.User) (*models.RecipeDetail, error) {
	tags, err := s.db.GetRecipeTags(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	ingredients, err := s.db.GetRecipeIngredients(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	author, err := s.db.GetUserByID(ctx, recipe.AuthorID)
	if err != nil {
		return nil, err
	}
	authorView, err := s.UserView(ctx, viewer, author)
	if err != nil {
		return nil, err
	}

	d := &models.RecipeDetail{
		ID:          recipe.ID,
		Tags:        tags,
		Author:      authorView,
		Ingredients: ingredients,
		Name:        recipe.Name,
		Image:       s.storage.URL(recipe.Image),
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
	}
	if viewer != nil {
		if d.IsFavorited, err = s.db.FavoriteExists(ctx, viewer.ID, recipe.ID); err != nil {
			return nil, err
		}
		if d.IsInShoppingCart, err = s.db.RecipeInUserCart(ctx, viewer.ID, recipe.ID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Minified returns the short recipe view used by favorites and the cart.
func (s *Service) Minified(ctx context.Context, id int64) (models.RecipeMinified, error) {
	recipe, err := s.db.GetRecipeByID(ctx, id)
	if err != nil {
		return models.RecipeMinified{}, err
	}
	return s.minify(recipe), nil
}

func (s *Service) minify(r *models.Recipe) models.RecipeMinified {
	return models.RecipeMinified{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.storage.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// UserView is the public view of user as seen by viewer.
func (s *Service) UserView(ctx context.Context, viewer, user *models.User) (models.UserView, error) {
	v := models.UserView{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if user.Avatar != nil {
		url := s.storage.URL(*user.Avatar)
		v.Avatar = &url
	}
	if viewer != nil && viewer.ID != user.ID {
		subscribed, err := s.db.SubscriptionExists(ctx, viewer.ID, user.ID)
		if err != nil {
			return models.UserView{}, err
		}
		v.IsSubscribed = subscribed
	}
	return v, nil
}

// Unlimited lists every recipe of an author in a subscription view.
const Unlimited = -1

// Subscription is the extended author view: the user plus their recipe
// count and up to recipesLimit recipes (all when recipesLimit is Unlimited).
func (s *Service) Subscription(ctx context.Context, viewer *models.User, authorID int64, recipesLimit int) (models.Subscription, error) {
	author, err := s.db.GetUserByID(ctx, authorID)
	if err != nil {
		return models.Subscription{}, err
	}
	view, err := s.UserView(ctx, viewer, author)
	if err != nil {
		return models.Subscription{}, err
	}
	count, err := s.db.CountRecipesByAuthor(ctx, authorID)
	if err != nil {
		return models.Subscription{}, err
	}
	recipes, err := s.db.ListRecipesByAuthor(ctx, authorID, recipesLimit)
	if err != nil {
		return models.Subscription{}, err
	}

	sub := models.Subscription{
		UserView:     view,
		RecipesCount: count,
		Recipes:      make([]models.RecipeMinified, len(recipes)),
	}
	for i := range recipes {
		sub.Recipes[i] = s.minify(&recipes[i])
	}
	return sub, nil
}

// Subscriptions builds the extended views of authors concurrently, keeping
// their order.
func (s *Service) Subscriptions(ctx context.Context, viewer *models.User, authors []models.User, recipesLimit int) ([]models.Subscription, error) {
	subs := make([]models.Subscription, len(authors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelViews)
	for i := range authors {
		g.Go(func() error {
			sub, err := s.Subscription(gctx, viewer, authors[i].ID, recipesLimit)
			if err != nil {
				return err
			}
			subs[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return subs, nil
}
