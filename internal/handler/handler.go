package handler

import (
	"net/http"

	"github.com/EgehanGundogdu/api-recipe/internal/middleware"
	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/internal/storage"
	"github.com/EgehanGundogdu/api-recipe/pkg/config"

	"github.com/labstack/echo/v4"
)

var (
	cfg    *config.Config
	assets *storage.Store
)

// Initialize wires the handlers to the loaded configuration and the asset
// store. Must run before any route is served.
func Initialize(c *config.Config, s *storage.Store) {
	cfg = c
	assets = s
}

// Assets exposes the configured asset store. Used by main for startup checks
// and by tests to inspect written files.
func Assets() *storage.Store {
	return assets
}

// currentUser returns the authenticated user placed in context by the auth
// middleware.
func currentUser(c echo.Context) *model.User {
	u, _ := c.Get(middleware.UserKey).(*model.User)
	return u
}

// currentUserID returns the authenticated caller's ID.
func currentUserID(c echo.Context) uint {
	id, _ := c.Get(middleware.UserIDKey).(uint)
	return id
}

// validationFailed renders a field-scoped validation error response.
func validationFailed(c echo.Context, errs map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
}

// ownedRefsRequirement returns the owner constraint for relational reference
// resolution: nil unless the cross-owner attach policy flag is on.
func ownedRefsRequirement(ownerID uint) *uint {
	if cfg != nil && cfg.Policy.RequireOwnedRefs {
		return &ownerID
	}
	return nil
}

// ownerScopedRetrieve reports whether single-object retrieval filters by
// owner. Off by default, matching the base behavior.
func ownerScopedRetrieve() bool {
	return cfg != nil && cfg.Policy.OwnerScopedRetrieve
}
