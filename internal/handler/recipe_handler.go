package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/internal/projection"
	"github.com/EgehanGundogdu/api-recipe/internal/repository"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxRecipeNameLength = 255
	maxPrice            = 999.99
)

// recipeRequest is the write payload for create and full update. Tags and
// ingredients are ID lists; a nil list on full update means the empty set.
type recipeRequest struct {
	Name        string   `json:"name"`
	CookMinutes *int     `json:"cook_minutes"`
	Price       *float64 `json:"price"`
	Link        string   `json:"link"`
	Tags        []uint   `json:"tags"`
	Ingredients []uint   `json:"ingredients"`
}

// recipePatchRequest is the partial-update payload. Only non-nil fields are
// applied; a nil association list leaves the current set untouched.
type recipePatchRequest struct {
	Name        *string  `json:"name"`
	CookMinutes *int     `json:"cook_minutes"`
	Price       *float64 `json:"price"`
	Link        *string  `json:"link"`
	Tags        *[]uint  `json:"tags"`
	Ingredients *[]uint  `json:"ingredients"`
}

// ListRecipes returns the caller's own recipes in the list shape.
func ListRecipes(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	store := repository.NewStore[model.Recipe, *model.Recipe](database.GetDB())
	defer prometheus.TrackDBOperation("query")(time.Now())
	recipes, err := store.List(userID, "Tags", "Ingredients")
	if err != nil {
		log.Error("Failed to list recipes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve recipes"})
	}

	prometheus.RecordResourceOperation("recipe", "list")
	return c.JSON(http.StatusOK, projection.Recipes(recipes, projection.For(projection.List)))
}

// CreateRecipe validates the payload, resolves relational references and
// creates a recipe owned by the caller.
func CreateRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse recipe request", zap.Error(err))
		prometheus.RecordValidationError("recipe")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	errs := map[string]string{}
	validateRecipeFields(errs, req.Name, req.CookMinutes, req.Price, req.Link, true)
	if len(errs) > 0 {
		prometheus.RecordValidationError("recipe")
		return validationFailed(c, errs)
	}

	db := database.GetDB()
	tags, ingredients, ok := resolveRecipeRefs(c, db, userID, req.Tags, req.Ingredients)
	if !ok {
		return nil
	}

	recipe := model.Recipe{
		Name:        req.Name,
		CookMinutes: *req.CookMinutes,
		Price:       *req.Price,
		Link:        req.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}

	store := repository.NewStore[model.Recipe, *model.Recipe](db)
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := store.Create(userID, &recipe); err != nil {
		log.Error("Failed to create recipe", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
	}

	log.Info("Recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("owner_id", userID))
	prometheus.RecordResourceOperation("recipe", "create")
	return c.JSON(http.StatusCreated, projection.Recipe(&recipe, projection.For(projection.Create)))
}

// GetRecipe returns one recipe in the detail shape, with tags and
// ingredients expanded.
func GetRecipe(c echo.Context) error {
	recipe, ok := fetchRecipe(c, "Tags", "Ingredients")
	if !ok {
		return nil
	}

	prometheus.RecordResourceOperation("recipe", "retrieve")
	return c.JSON(http.StatusOK, projection.Recipe(recipe, projection.For(projection.Retrieve)))
}

// UpdateRecipe replaces a recipe. All required fields must be present and
// omitted association lists clear the recipe's sets. The clear-then-set
// replace runs inside one transaction.
func UpdateRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	recipe, ok := fetchRecipe(c)
	if !ok {
		return nil
	}

	var req recipeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse recipe update", zap.Error(err))
		prometheus.RecordValidationError("recipe")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	errs := map[string]string{}
	validateRecipeFields(errs, req.Name, req.CookMinutes, req.Price, req.Link, true)
	if len(errs) > 0 {
		prometheus.RecordValidationError("recipe")
		return validationFailed(c, errs)
	}

	db := database.GetDB()
	tags, ingredients, ok := resolveRecipeRefs(c, db, userID, req.Tags, req.Ingredients)
	if !ok {
		return nil
	}

	recipe.Name = req.Name
	recipe.CookMinutes = *req.CookMinutes
	recipe.Price = *req.Price
	recipe.Link = req.Link

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Save(recipe).Error; err != nil {
			return err
		}
		if err := replaceAssociation(tx, recipe, "Tags", tags); err != nil {
			return err
		}
		return replaceAssociation(tx, recipe, "Ingredients", ingredients)
	})
	if err != nil {
		log.Error("Failed to update recipe", zap.Uint("recipe_id", recipe.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	recipe.Tags = tags
	recipe.Ingredients = ingredients

	log.Info("Recipe updated", zap.Uint("recipe_id", recipe.ID))
	prometheus.RecordResourceOperation("recipe", "update")
	return c.JSON(http.StatusOK, projection.Recipe(recipe, projection.For(projection.Update)))
}

// PatchRecipe applies only the supplied fields. A supplied association list,
// empty included, replaces the set; an omitted one is left untouched.
func PatchRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	userID := currentUserID(c)

	recipe, ok := fetchRecipe(c, "Tags", "Ingredients")
	if !ok {
		return nil
	}

	var req recipePatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse recipe patch", zap.Error(err))
		prometheus.RecordValidationError("recipe")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	name := recipe.Name
	if req.Name != nil {
		name = *req.Name
	}
	link := recipe.Link
	if req.Link != nil {
		link = *req.Link
	}
	cookMinutes := recipe.CookMinutes
	if req.CookMinutes != nil {
		cookMinutes = *req.CookMinutes
	}
	price := recipe.Price
	if req.Price != nil {
		price = *req.Price
	}

	errs := map[string]string{}
	validateRecipeFields(errs, name, &cookMinutes, &price, link, false)
	if len(errs) > 0 {
		prometheus.RecordValidationError("recipe")
		return validationFailed(c, errs)
	}

	db := database.GetDB()

	var tags []model.Tag
	var ingredients []model.Ingredient
	if req.Tags != nil {
		var ok bool
		tags, _, ok = resolveRecipeRefs(c, db, userID, *req.Tags, nil)
		if !ok {
			return nil
		}
	}
	if req.Ingredients != nil {
		var ok bool
		_, ingredients, ok = resolveRecipeRefs(c, db, userID, nil, *req.Ingredients)
		if !ok {
			return nil
		}
	}

	recipe.Name = name
	recipe.Link = link
	recipe.CookMinutes = cookMinutes
	recipe.Price = price

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Save(recipe).Error; err != nil {
			return err
		}
		if req.Tags != nil {
			if err := replaceAssociation(tx, recipe, "Tags", tags); err != nil {
				return err
			}
		}
		if req.Ingredients != nil {
			return replaceAssociation(tx, recipe, "Ingredients", ingredients)
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to patch recipe", zap.Uint("recipe_id", recipe.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	if req.Tags != nil {
		recipe.Tags = tags
	}
	if req.Ingredients != nil {
		recipe.Ingredients = ingredients
	}

	log.Info("Recipe patched", zap.Uint("recipe_id", recipe.ID))
	prometheus.RecordResourceOperation("recipe", "update")
	return c.JSON(http.StatusOK, projection.Recipe(recipe, projection.For(projection.Update)))
}

// DeleteRecipe removes a recipe, its association rows and its stored image.
func DeleteRecipe(c echo.Context) error {
	log := logger.FromContext(c)

	recipe, ok := fetchRecipe(c)
	if !ok {
		return nil
	}

	store := repository.NewStore[model.Recipe, *model.Recipe](database.GetDB())
	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := store.Delete(recipe); err != nil {
		log.Error("Failed to delete recipe", zap.Uint("recipe_id", recipe.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete recipe"})
	}

	if err := assets.Remove(recipe.Image); err != nil {
		log.Warn("Failed to remove recipe image", zap.String("path", recipe.Image), zap.Error(err))
	}

	log.Info("Recipe deleted", zap.Uint("recipe_id", recipe.ID))
	prometheus.RecordResourceOperation("recipe", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "recipe deleted successfully"})
}

// fetchRecipe loads the recipe addressed by the :id param. Retrieval by
// primary key is not owner-filtered unless the retrieve policy flag is on.
// On failure the response has already been written and ok is false.
func fetchRecipe(c echo.Context, preloads ...string) (*model.Recipe, bool) {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
		return nil, false
	}

	store := repository.NewStore[model.Recipe, *model.Recipe](database.GetDB())
	var recipe *model.Recipe
	if ownerScopedRetrieve() {
		recipe, err = store.GetOwned(currentUserID(c), uint(id), preloads...)
	} else {
		recipe, err = store.Get(uint(id), preloads...)
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("Failed to load recipe", zap.Uint64("recipe_id", id), zap.Error(err))
		}
		c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
		return nil, false
	}
	return recipe, true
}

// resolveRecipeRefs resolves tag and ingredient ID lists for a write. On an
// unresolved reference the field-scoped 400 has already been written and ok
// is false.
func resolveRecipeRefs(c echo.Context, db *gorm.DB, userID uint, tagIDs, ingredientIDs []uint) ([]model.Tag, []model.Ingredient, bool) {
	requiredOwner := ownedRefsRequirement(userID)

	tags, err := repository.Resolve[model.Tag, *model.Tag](db, "tags", tagIDs, requiredOwner)
	if err != nil {
		renderResolveError(c, err)
		return nil, nil, false
	}
	ingredients, err := repository.Resolve[model.Ingredient, *model.Ingredient](db, "ingredients", ingredientIDs, requiredOwner)
	if err != nil {
		renderResolveError(c, err)
		return nil, nil, false
	}
	return tags, ingredients, true
}

func renderResolveError(c echo.Context, err error) {
	var unresolved *repository.UnresolvedRefError
	if errors.As(err, &unresolved) {
		prometheus.RecordValidationError("recipe")
		validationFailed(c, map[string]string{unresolved.Field: unresolved.Error()})
		return
	}
	logger.FromContext(c).Error("Failed to resolve references", zap.Error(err))
	c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve references"})
}

// replaceAssociation swaps a recipe's association set for the resolved rows,
// clearing it when the set is empty.
func replaceAssociation[T any](tx *gorm.DB, recipe *model.Recipe, name string, rows []T) error {
	assoc := tx.Model(recipe).Association(name)
	if len(rows) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(&rows)
}

func validateRecipeFields(errs map[string]string, name string, cookMinutes *int, price *float64, link string, requireAll bool) {
	if name == "" {
		errs["name"] = "name is required"
	} else if utf8.RuneCountInString(name) > maxRecipeNameLength {
		errs["name"] = "name is too long"
	}

	if cookMinutes == nil {
		if requireAll {
			errs["cook_minutes"] = "cook_minutes is required"
		}
	} else if *cookMinutes < 0 {
		errs["cook_minutes"] = "cook_minutes cannot be negative"
	}

	if price == nil {
		if requireAll {
			errs["price"] = "price is required"
		}
	} else if *price < 0 || *price > maxPrice {
		errs["price"] = "price must be between 0 and 999.99"
	}

	if link != "" {
		if _, err := url.ParseRequestURI(link); err != nil {
			errs["link"] = "enter a valid url"
		}
	}
}
