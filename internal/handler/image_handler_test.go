package handler_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EgehanGundogdu/api-recipe/internal/handler"
	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes renders a tiny valid PNG payload.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// largePNGBytes renders a valid PNG bigger than the upload cap. Noise pixels
// keep the encoding incompressible.
func largePNGBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2048, 2048))
	rng := rand.New(rand.NewSource(1))
	rng.Read(img.Pix)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.Greater(t, buf.Len(), 10<<20, "payload must exceed the upload cap")
	return buf.Bytes()
}

// uploadImage posts a multipart body to the image-upload endpoint.
func uploadImage(t *testing.T, e *echo.Echo, token string, recipeID uint, filename string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/recipe/recipes/%d/image-upload", recipeID), &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	e := newTestServer(t)
	token := newAuthedUser(t, e, "one@test.com")
	recipeID := createRecipe(t, e, token, map[string]interface{}{})

	rec := uploadImage(t, e, token, recipeID, "photo.png", pngBytes(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	path := decodeBody(t, rec)["image"].(string)
	assert.True(t, strings.HasPrefix(path, "uploads/recipe/"), path)
	assert.True(t, strings.HasSuffix(path, ".png"), path)
	assert.True(t, handler.Assets().Exists(path), "stored file should be on disk")

	var recipe model.Recipe
	require.NoError(t, database.GetDB().First(&recipe, recipeID).Error)
	assert.Equal(t, path, recipe.Image)
}

func TestUploadNonImageRejected(t *testing.T) {
	e := newTestServer(t)
	token := newAuthedUser(t, e, "one@test.com")
	recipeID := createRecipe(t, e, token, map[string]interface{}{})

	// Attach a valid image first so a prior asset exists
	first := uploadImage(t, e, token, recipeID, "photo.png", pngBytes(t))
	require.Equal(t, http.StatusOK, first.Code)
	priorPath := decodeBody(t, first)["image"].(string)

	rec := uploadImage(t, e, token, recipeID, "notes.txt", []byte("definitely not an image"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "image")

	// The prior image must be untouched, in the row and on disk
	var recipe model.Recipe
	require.NoError(t, database.GetDB().First(&recipe, recipeID).Error)
	assert.Equal(t, priorPath, recipe.Image)
	assert.True(t, handler.Assets().Exists(priorPath))
}

func TestUploadReplacesPreviousImage(t *testing.T) {
	e := newTestServer(t)
	token := newAuthedUser(t, e, "one@test.com")
	recipeID := createRecipe(t, e, token, map[string]interface{}{})

	first := uploadImage(t, e, token, recipeID, "first.png", pngBytes(t))
	require.Equal(t, http.StatusOK, first.Code)
	firstPath := decodeBody(t, first)["image"].(string)

	second := uploadImage(t, e, token, recipeID, "second.png", pngBytes(t))
	require.Equal(t, http.StatusOK, second.Code)
	secondPath := decodeBody(t, second)["image"].(string)

	assert.NotEqual(t, firstPath, secondPath)
	assert.False(t, handler.Assets().Exists(firstPath), "old file should be removed")
	assert.True(t, handler.Assets().Exists(secondPath))
}

func TestUploadOversizedImageRejected(t *testing.T) {
	e := newTestServer(t)
	token := newAuthedUser(t, e, "one@test.com")
	recipeID := createRecipe(t, e, token, map[string]interface{}{})

	rec := uploadImage(t, e, token, recipeID, "huge.png", largePNGBytes(t))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	errs := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "image")

	// A rejected upload stores nothing
	var recipe model.Recipe
	require.NoError(t, database.GetDB().First(&recipe, recipeID).Error)
	assert.Empty(t, recipe.Image)
}

func TestUploadMissingFile(t *testing.T) {
	e := newTestServer(t)
	token := newAuthedUser(t, e, "one@test.com")
	recipeID := createRecipe(t, e, token, map[string]interface{}{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/recipe/recipes/%d/image-upload", recipeID), &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "image")
}

func TestDeleteRecipeRemovesImageFile(t *testing.T) {
	e := newTestServer(t)
	token := newAuthedUser(t, e, "one@test.com")
	recipeID := createRecipe(t, e, token, map[string]interface{}{})

	rec := uploadImage(t, e, token, recipeID, "photo.png", pngBytes(t))
	require.Equal(t, http.StatusOK, rec.Code)
	path := decodeBody(t, rec)["image"].(string)
	require.True(t, handler.Assets().Exists(path))

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/recipe/recipes/%d", recipeID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, handler.Assets().Exists(path), "asset lifecycle is tied to the recipe")
}
