package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodgram/internal/auth"
	"foodgram/internal/db"
	"foodgram/internal/handlers"
	"foodgram/internal/handlers/api"
	"foodgram/internal/middleware"
	"foodgram/internal/recipes"
	"foodgram/internal/shoppinglist"
	"foodgram/internal/shortlink"
	"foodgram/internal/storage"
	"foodgram/internal/validation"
)

// RegisterRoutes wires the services and registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, database *db.DB) error {
	media, err := newStorage(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to set up media storage: %w", err)
	}
	links, err := shortlink.New(database, s.Cfg.BaseURL, s.Cfg.ShortCodeLength, s.Cfg.ShortLinkCacheSize)
	if err != nil {
		return err
	}
	exporter, err := shoppinglist.NewExporter(shoppinglist.PDFOptions{
		FontPath: s.Cfg.PDFFontPath,
		LogoPath: s.Cfg.PDFLogoPath,
	})
	if err != nil {
		return err
	}
	tokens := auth.NewService(database, s.Cfg.TokenSecret, s.Cfg.TokenTTL)
	recipeService := recipes.NewService(database, media, links, validation.RecipeRules{
		MinCookingTime: s.Cfg.MinCookingTime,
		MaxImageSize:   s.Cfg.MaxImageSize,
	})

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// Initialize handlers
	recipeHandler := api.NewRecipeHandler(database, s.Cfg, recipeService, links, exporter)
	userHandler := api.NewUserHandler(database, s.Cfg, recipeService, media)
	catalogHandler := api.NewCatalogHandler(database)
	tokenHandler := api.NewTokenHandler(database, tokens)
	healthHandler := api.NewHealthHandler(database)
	redirectHandler := handlers.NewRedirectHandler(links, s.Cfg)

	// Optional OIDC login
	if s.Cfg.IsOIDCEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg, database, tokens)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
	} else {
		slog.Info("OIDC login disabled, set OIDC_ISSUER and OIDC_CLIENT_ID to enable")
	}

	s.App.Get("/healthz", healthHandler.Health)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.App.Get("/s/:code", redirectHandler.Redirect)

	r := s.App.Group("/api")

	// Token auth
	r.Post("/auth/token/login", tokenHandler.Login)
	r.Post("/auth/token/logout", authMiddleware.RequireAuth, tokenHandler.Logout)

	// Users (static paths before /users/:id)
	r.Get("/users", authMiddleware.OptionalAuth, userHandler.List)
	r.Post("/users", userHandler.Register)
	r.Get("/users/me", authMiddleware.RequireAuth, userHandler.Me)
	r.Put("/users/me/avatar", authMiddleware.RequireAuth, userHandler.SetAvatar)
	r.Delete("/users/me/avatar", authMiddleware.RequireAuth, userHandler.DeleteAvatar)
	r.Post("/users/set_password", authMiddleware.RequireAuth, userHandler.SetPassword)
	r.Get("/users/subscriptions", authMiddleware.RequireAuth, userHandler.Subscriptions)
	r.Get("/users/:id", authMiddleware.OptionalAuth, userHandler.Get)
	r.Post("/users/:id/subscribe", authMiddleware.RequireAuth, userHandler.Subscribe)
	r.Delete("/users/:id/subscribe", authMiddleware.RequireAuth, userHandler.Subscribe)

	// Catalog
	r.Get("/tags", catalogHandler.ListTags)
	r.Get("/tags/:id", catalogHandler.GetTag)
	r.Get("/ingredients", catalogHandler.ListIngredients)
	r.Get("/ingredients/:id", catalogHandler.GetIngredient)

	// Recipes
	r.Get("/recipes", authMiddleware.OptionalAuth, recipeHandler.List)
	r.Post("/recipes", authMiddleware.RequireAuth, recipeHandler.Create)
	r.Get("/recipes/download_shopping_cart", authMiddleware.RequireAuth, recipeHandler.DownloadShoppingCart)
	r.Get("/recipes/:id", authMiddleware.OptionalAuth, recipeHandler.Get)
	r.Patch("/recipes/:id", authMiddleware.RequireAuth, recipeHandler.Update)
	r.Delete("/recipes/:id", authMiddleware.RequireAuth, recipeHandler.Delete)
	r.Get("/recipes/:id/get-link", recipeHandler.GetLink)
	r.Post("/recipes/:id/favorite", authMiddleware.RequireAuth, recipeHandler.Favorite)
	r.Delete("/recipes/:id/favorite", authMiddleware.RequireAuth, recipeHandler.Favorite)
	r.Post("/recipes/:id/shopping_cart", authMiddleware.RequireAuth, recipeHandler.ShoppingCart)
	r.Delete("/recipes/:id/shopping_cart", authMiddleware.RequireAuth, recipeHandler.ShoppingCart)

	return nil
}

// newStorage picks the media backend from the configuration.
func newStorage(ctx context.Context, s *Server) (storage.Storage, error) {
	if s.Cfg.IsS3Storage() {
		return storage.NewS3(ctx, storage.S3Options{
			Endpoint:  s.Cfg.S3Endpoint,
			Region:    s.Cfg.S3Region,
			Bucket:    s.Cfg.S3Bucket,
			AccessKey: s.Cfg.S3AccessKey,
			SecretKey: s.Cfg.S3SecretKey,
		})
	}
	return storage.NewLocal(s.Cfg.MediaRoot, s.Cfg.MediaURL)
}
