package handler

import (
	"bytes"
	"image"
	"io"
	"net/http"
	"time"

	// Registered decoders bound the set of accepted upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// maxImageSize is the largest upload accepted.
const maxImageSize = 10 << 20

// UploadRecipeImage attaches an image to a recipe. The payload must decode
// as a real image; a rejected upload leaves any prior image untouched. On
// success the new file replaces the old one atomically: write new, repoint
// the row, then drop the old file.
func UploadRecipeImage(c echo.Context) error {
	log := logger.FromContext(c)

	recipe, ok := fetchRecipe(c)
	if !ok {
		return nil
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		prometheus.RecordImageUpload("rejected")
		return validationFailed(c, map[string]string{"image": "no image file submitted"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer src.Close()

	// Read one byte past the cap so an oversized upload is rejected rather
	// than truncated to a corrupt asset
	data, err := io.ReadAll(io.LimitReader(src, maxImageSize+1))
	if err != nil {
		log.Error("Failed to read uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	if len(data) > maxImageSize {
		log.Error("Rejected oversized upload", zap.Uint("recipe_id", recipe.ID), zap.Int("size", len(data)))
		prometheus.RecordImageUpload("rejected")
		return validationFailed(c, map[string]string{"image": "image too large"})
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		log.Error("Rejected non-image upload", zap.Uint("recipe_id", recipe.ID), zap.Error(err))
		prometheus.RecordImageUpload("rejected")
		return validationFailed(c, map[string]string{"image": "upload a valid image"})
	}

	relPath := assets.GeneratePath(fileHeader.Filename)
	if err := assets.Save(relPath, bytes.NewReader(data)); err != nil {
		log.Error("Failed to store image", zap.String("path", relPath), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	oldPath := recipe.Image
	recipe.Image = relPath
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(recipe).Update("image", relPath).Error; err != nil {
		log.Error("Failed to update recipe image", zap.Uint("recipe_id", recipe.ID), zap.Error(err))
		// Roll the file back so a failed update leaves no orphan
		if rmErr := assets.Remove(relPath); rmErr != nil {
			log.Warn("Failed to remove orphaned image", zap.String("path", relPath), zap.Error(rmErr))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	if oldPath != "" && oldPath != relPath {
		if err := assets.Remove(oldPath); err != nil {
			log.Warn("Failed to remove previous image", zap.String("path", oldPath), zap.Error(err))
		}
	}

	log.Info("Recipe image uploaded", zap.Uint("recipe_id", recipe.ID), zap.String("path", relPath))
	prometheus.RecordImageUpload("accepted")
	return c.JSON(http.StatusOK, echo.Map{"id": recipe.ID, "image": recipe.Image})
}
