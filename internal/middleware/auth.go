package middleware

import (
	"net/http"
	"strings"

	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// UserKey is the context key the resolved user is stored under.
	UserKey = "user"
	// UserIDKey is the context key the resolved user ID is stored under.
	UserIDKey = "user_id"
)

// AuthMiddleware resolves the opaque bearer token from the Authorization
// header against the token table and stores the owning user in the context.
// Header checks run before any database access.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Accept "Bearer <key>" and "Token <key>" schemes
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || (!strings.EqualFold(parts[0], "bearer") && !strings.EqualFold(parts[0], "token")) {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Look up the token and its owner
		var token model.AuthToken
		result := database.GetDB().Preload("User").Where("key = ?", parts[1]).First(&token)
		if result.Error != nil {
			log.Error("Unrecognized token")
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		if !token.User.IsActive {
			log.Error("Inactive account", zap.Uint("user_id", token.UserID))
			prometheus.RecordAuthError("inactive_user")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		// Store the caller in context; handlers thread it into every
		// repository call explicitly
		c.Set(UserKey, &token.User)
		c.Set(UserIDKey, token.User.ID)

		return next(c)
	}
}
