package handler

import (
	"net/http"
	"time"

	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/internal/repository"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListIngredients returns the caller's own ingredients in insertion order.
func ListIngredients(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	store := repository.NewStore[model.Ingredient, *model.Ingredient](database.GetDB())
	defer prometheus.TrackDBOperation("query")(time.Now())
	ingredients, err := store.List(userID)
	if err != nil {
		log.Error("Failed to list ingredients", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve ingredients"})
	}

	prometheus.RecordResourceOperation("ingredient", "list")
	return c.JSON(http.StatusOK, ingredients)
}

// CreateIngredient creates an ingredient owned by the caller.
func CreateIngredient(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse ingredient request", zap.Error(err))
		prometheus.RecordValidationError("ingredient")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if errs := validateName(req.Name, maxNameLength); len(errs) > 0 {
		prometheus.RecordValidationError("ingredient")
		return validationFailed(c, errs)
	}

	ingredient := model.Ingredient{Name: req.Name}
	store := repository.NewStore[model.Ingredient, *model.Ingredient](database.GetDB())
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := store.Create(userID, &ingredient); err != nil {
		log.Error("Failed to create ingredient", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ingredient"})
	}

	log.Info("Ingredient created", zap.Uint("ingredient_id", ingredient.ID), zap.Uint("owner_id", userID))
	prometheus.RecordResourceOperation("ingredient", "create")
	return c.JSON(http.StatusCreated, ingredient)
}
