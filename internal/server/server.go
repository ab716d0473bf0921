// Package server assembles the Echo application: global middleware, public
// routes and the authenticated resource groups.
package server

import (
	"github.com/EgehanGundogdu/api-recipe/internal/handler"
	"github.com/EgehanGundogdu/api-recipe/internal/middleware"
	"github.com/EgehanGundogdu/api-recipe/internal/storage"
	"github.com/EgehanGundogdu/api-recipe/pkg/config"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// New builds the Echo application for the given configuration.
func New(cfg *config.Config, log *zap.Logger) *echo.Echo {
	handler.Initialize(cfg, storage.New(cfg.Upload.Root))

	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Account routes - registration and token issuance are public, the
	// /user/me group operates on the caller's own record
	user := e.Group("/user")
	user.POST("/create", handler.CreateUser)
	user.POST("/obtain-token", handler.ObtainToken)

	me := user.Group("/me")
	me.Use(middleware.AuthMiddleware)
	me.GET("", handler.GetMe)
	me.PUT("", handler.UpdateMe)
	me.PATCH("", handler.PatchMe)
	me.DELETE("", handler.DeleteMe)

	// Owner-scoped resources - all require authentication
	recipe := e.Group("/recipe")
	recipe.Use(middleware.AuthMiddleware)

	recipe.GET("/tags", handler.ListTags)
	recipe.POST("/tags", handler.CreateTag)

	recipe.GET("/ingredients", handler.ListIngredients)
	recipe.POST("/ingredients", handler.CreateIngredient)

	recipe.GET("/recipes", handler.ListRecipes)
	recipe.POST("/recipes", handler.CreateRecipe)
	recipe.GET("/recipes/:id", handler.GetRecipe)
	recipe.PUT("/recipes/:id", handler.UpdateRecipe)
	recipe.PATCH("/recipes/:id", handler.PatchRecipe)
	recipe.DELETE("/recipes/:id", handler.DeleteRecipe)
	recipe.POST("/recipes/:id/image-upload", handler.UploadRecipeImage)

	return e
}
