package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EgehanGundogdu/api-recipe/internal/server"
	"github.com/EgehanGundogdu/api-recipe/pkg/config"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestServer builds the full Echo application against a fresh in-memory
// database. The connection pool is pinned to a single connection so every
// query sees the same :memory: database.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWithConfig(t, func(*config.Config) {})
}

func newTestServerWithConfig(t *testing.T, mutate func(*config.Config)) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	database.SetDB(db)

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Upload.Root = t.TempDir()
	cfg.Policy.OwnerScopedRetrieve = false
	cfg.Policy.RequireOwnedRefs = false
	mutate(cfg)

	return server.New(cfg, zap.NewNop())
}

// doJSON performs a request against the app and returns the recorder.
func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerUser creates an account through the API and fails the test on error.
func registerUser(t *testing.T, e *echo.Echo, email, password string) {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/user/create", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// obtainToken logs in through the API and returns the bearer key.
func obtainToken(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/user/obtain-token", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, ok := decodeBody(t, rec)["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	return token
}

// newAuthedUser registers a user and returns a valid token.
func newAuthedUser(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	registerUser(t, e, email, "supersecret")
	return obtainToken(t, e, email, "supersecret")
}

// createTag creates a tag through the API and returns its ID.
func createTag(t *testing.T, e *echo.Echo, token, name string) uint {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/recipe/tags", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decodeBody(t, rec)["id"].(float64))
}

// createIngredient creates an ingredient through the API and returns its ID.
func createIngredient(t *testing.T, e *echo.Echo, token, name string) uint {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/recipe/ingredients", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decodeBody(t, rec)["id"].(float64))
}

// createRecipe creates a recipe through the API and returns its ID.
func createRecipe(t *testing.T, e *echo.Echo, token string, payload map[string]interface{}) uint {
	t.Helper()
	if _, ok := payload["name"]; !ok {
		payload["name"] = "Sample recipe"
	}
	if _, ok := payload["cook_minutes"]; !ok {
		payload["cook_minutes"] = 12
	}
	if _, ok := payload["price"]; !ok {
		payload["price"] = 12.0
	}
	rec := doJSON(t, e, http.MethodPost, "/recipe/recipes", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(decodeBody(t, rec)["id"].(float64))
}
