package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// credentialFailure is the single message for every credential mismatch, so
// responses never reveal whether the email or the password was wrong.
const credentialFailure = "unable to log in with provided credentials"

// ObtainToken verifies credentials and returns the caller's opaque token.
// Issuance is get-or-create: repeated logins return the same key.
func ObtainToken(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.ObtainTokenCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse token request", zap.Error(err))
		prometheus.RecordValidationError("token")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		errs := map[string]string{}
		if req.Email == "" {
			errs["email"] = "email is required"
		}
		if req.Password == "" {
			errs["password"] = "password is required"
		}
		prometheus.RecordValidationError("token")
		return validationFailed(c, errs)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": credentialFailure})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": credentialFailure})
	}

	if !user.IsActive {
		log.Error("Inactive account", zap.String("email", req.Email))
		prometheus.RecordAuthError("inactive_user")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": credentialFailure})
	}

	// Get-or-create the token row for this user
	var token model.AuthToken
	result = database.GetDB().Where("user_id = ?", user.ID).First(&token)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Error("Failed to look up token", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
		}

		key, err := generateTokenKey()
		if err != nil {
			log.Error("Failed to generate token key", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
		}

		token = model.AuthToken{Key: key, UserID: user.ID}
		defer prometheus.TrackDBOperation("insert")(time.Now())
		if result := database.GetDB().Create(&token); result.Error != nil {
			log.Error("Failed to create token", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
		}
		prometheus.IncreaseActiveTokens()
	}

	log.Info("Token issued", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"token": token.Key})
}

// generateTokenKey returns 20 random bytes hex encoded, the shape of an
// opaque bearer key.
func generateTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
