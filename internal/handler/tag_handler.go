package handler

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/internal/repository"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxNameLength = 30

// ListTags returns the caller's own tags in insertion order.
func ListTags(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	store := repository.NewStore[model.Tag, *model.Tag](database.GetDB())
	defer prometheus.TrackDBOperation("query")(time.Now())
	tags, err := store.List(userID)
	if err != nil {
		log.Error("Failed to list tags", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tags"})
	}

	prometheus.RecordResourceOperation("tag", "list")
	return c.JSON(http.StatusOK, tags)
}

// CreateTag creates a tag owned by the caller. Any owner value in the
// payload is ignored.
func CreateTag(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tag request", zap.Error(err))
		prometheus.RecordValidationError("tag")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if errs := validateName(req.Name, maxNameLength); len(errs) > 0 {
		prometheus.RecordValidationError("tag")
		return validationFailed(c, errs)
	}

	tag := model.Tag{Name: req.Name}
	store := repository.NewStore[model.Tag, *model.Tag](database.GetDB())
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := store.Create(userID, &tag); err != nil {
		log.Error("Failed to create tag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create tag"})
	}

	log.Info("Tag created", zap.Uint("tag_id", tag.ID), zap.Uint("owner_id", userID))
	prometheus.RecordResourceOperation("tag", "create")
	return c.JSON(http.StatusCreated, tag)
}

// validateName checks the name in characters, not bytes, so multibyte names
// get the full length budget.
func validateName(name string, max int) map[string]string {
	errs := map[string]string{}
	if name == "" {
		errs["name"] = "name is required"
	} else if utf8.RuneCountInString(name) > max {
		errs["name"] = "name is too long"
	}
	return errs
}
