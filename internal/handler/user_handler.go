package handler

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"
	"unicode"

	"github.com/EgehanGundogdu/api-recipe/internal/model"
	"github.com/EgehanGundogdu/api-recipe/pkg/database"
	"github.com/EgehanGundogdu/api-recipe/pkg/logger"
	"github.com/EgehanGundogdu/api-recipe/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser registers a new account keyed by email.
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordValidationError("user")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	errs := map[string]string{}
	validateEmail(errs, req.Email)
	validatePassword(errs, req.Password)

	// Email uniqueness is part of validation, not a conflict response
	if errs["email"] == "" {
		var count int64
		defer prometheus.TrackDBOperation("query")(time.Now())
		database.GetDB().Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			errs["email"] = "a user with this email already exists"
		}
	}

	if len(errs) > 0 {
		log.Error("Invalid registration data", zap.String("email", req.Email))
		prometheus.RecordValidationError("user")
		return validationFailed(c, errs)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email))
	prometheus.RecordResourceOperation("user", "create")
	return c.JSON(http.StatusCreated, user)
}

// GetMe returns the authenticated user's own record.
func GetMe(c echo.Context) error {
	prometheus.RecordResourceOperation("user", "retrieve")
	return c.JSON(http.StatusOK, currentUser(c))
}

// UpdateMe replaces the authenticated user's record. Email and password are
// required; omitted name fields reset to empty.
func UpdateMe(c echo.Context) error {
	log := logger.FromContext(c)
	user := currentUser(c)

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile update", zap.Error(err))
		prometheus.RecordValidationError("user")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	errs := map[string]string{}
	validateEmail(errs, req.Email)
	validatePassword(errs, req.Password)
	if errs["email"] == "" && req.Email != user.Email {
		var count int64
		database.GetDB().Model(&model.User{}).Where("email = ? AND id != ?", req.Email, user.ID).Count(&count)
		if count > 0 {
			errs["email"] = "a user with this email already exists"
		}
	}
	if len(errs) > 0 {
		prometheus.RecordValidationError("user")
		return validationFailed(c, errs)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	user.Email = req.Email
	user.Password = string(hashedPassword)
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("User updated", zap.Uint("user_id", user.ID))
	prometheus.RecordResourceOperation("user", "update")
	return c.JSON(http.StatusOK, user)
}

// PatchMe applies only the supplied fields to the authenticated user.
func PatchMe(c echo.Context) error {
	log := logger.FromContext(c)
	user := currentUser(c)

	var req struct {
		Email     *string `json:"email"`
		Password  *string `json:"password"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile patch", zap.Error(err))
		prometheus.RecordValidationError("user")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	errs := map[string]string{}
	if req.Email != nil {
		validateEmail(errs, *req.Email)
		if errs["email"] == "" && *req.Email != user.Email {
			var count int64
			database.GetDB().Model(&model.User{}).Where("email = ? AND id != ?", *req.Email, user.ID).Count(&count)
			if count > 0 {
				errs["email"] = "a user with this email already exists"
			}
		}
	}
	if req.Password != nil {
		validatePassword(errs, *req.Password)
	}
	if len(errs) > 0 {
		prometheus.RecordValidationError("user")
		return validationFailed(c, errs)
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		user.Password = string(hashedPassword)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("User patched", zap.Uint("user_id", user.ID))
	prometheus.RecordResourceOperation("user", "update")
	return c.JSON(http.StatusOK, user)
}

// DeleteMe removes the authenticated user and everything the user owns:
// token, tags, ingredients, recipes, association rows and stored images.
func DeleteMe(c echo.Context) error {
	log := logger.FromContext(c)
	user := currentUser(c)

	var recipes []model.Recipe
	if err := database.GetDB().Where("owner_id = ?", user.ID).Find(&recipes).Error; err != nil {
		log.Error("Failed to load owned recipes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		for i := range recipes {
			if err := tx.Model(&recipes[i]).Association("Tags").Clear(); err != nil {
				return err
			}
			if err := tx.Model(&recipes[i]).Association("Ingredients").Clear(); err != nil {
				return err
			}
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&model.Recipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&model.Tag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&model.Ingredient{}).Error; err != nil {
			return err
		}
		result := tx.Where("user_id = ?", user.ID).Delete(&model.AuthToken{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			prometheus.DecreaseActiveTokens()
		}
		return tx.Delete(&model.User{}, user.ID).Error
	})
	if err != nil {
		log.Error("Failed to delete user", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	// Image files go after the transaction commits; a leftover file is
	// recoverable, a dangling DB row is not
	for i := range recipes {
		if err := assets.Remove(recipes[i].Image); err != nil {
			log.Warn("Failed to remove recipe image", zap.String("path", recipes[i].Image), zap.Error(err))
		}
	}

	log.Info("User deleted", zap.Uint("user_id", user.ID))
	prometheus.RecordResourceOperation("user", "delete")
	return c.NoContent(http.StatusNoContent)
}

func validateEmail(errs map[string]string, email string) {
	if email == "" {
		errs["email"] = "email is required"
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "enter a valid email address"
	}
}

func validatePassword(errs map[string]string, password string) {
	minLength := 8
	if cfg != nil && cfg.Auth.MinPasswordLength > 0 {
		minLength = cfg.Auth.MinPasswordLength
	}
	if len(password) < minLength {
		errs["password"] = fmt.Sprintf("password must be at least %d characters", minLength)
		return
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		errs["password"] = "password cannot be entirely numeric"
	}
}
