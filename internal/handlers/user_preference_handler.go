package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/models"
)

type UserPreferenceHandler struct {
	DB *gorm.DB
}

func NewUserPreferenceHandler(db *gorm.DB) *UserPreferenceHandler {
	return &UserPreferenceHandler{DB: db}
}

// GetUserPreference returns where the caller's installment reminders are sent.
// Customers without a stored preference get email.
func (h *UserPreferenceHandler) GetUserPreference(c echo.Context) error {
	userID := currentUserID(c)

	var pref models.UserNotifPreference
	err := h.DB.WithContext(c.Request().Context()).Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.UserNotifPreference{
			UserID:             userID,
			Channel:            models.NotificationChannelEmail,
			WhatsappTargetType: models.WhatsappTargetTypePersonal,
		}
	} else if err != nil {
		return apperr.Internal("Error fetching preference", err)
	}

	return c.JSON(http.StatusOK, pref)
}

// UpdateUserPreference upserts the caller's preference
func (h *UserPreferenceHandler) UpdateUserPreference(c echo.Context) error {
	var req NotificationPreferenceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := currentUserID(c)
	db := h.DB.WithContext(c.Request().Context())

	var pref models.UserNotifPreference
	err := db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref = models.UserNotifPreference{UserID: userID}
	} else if err != nil {
		return apperr.Internal("Database error", err)
	}

	pref.Channel = models.NotificationChannel(req.Channel)
	pref.WhatsappTargetType = req.WhatsappTargetType
	if pref.WhatsappTargetType == "" {
		pref.WhatsappTargetType = models.WhatsappTargetTypePersonal
	}
	pref.WhatsappGroupID = req.WhatsappGroupID

	if err := db.Save(&pref).Error; err != nil {
		return apperr.Internal("Failed to save preference", err)
	}

	return c.JSON(http.StatusOK, pref)
}
