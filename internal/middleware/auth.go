package middleware

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/models"
)

const (
	// HeaderUserID identifies the calling customer.
	HeaderUserID = "x-user-id"
	// ContextKeyUserID is where RequireUser stores the customer id.
	ContextKeyUserID = "userID"
)

func invalidUser(msg string) error {
	return apperr.Validation("The given data was invalid.", map[string][]string{
		HeaderUserID: {msg},
	})
}

// RequireUser resolves the x-user-id header to an existing customer and
// stores its id on the context. Missing, malformed or unknown ids are rejected.
func RequireUser(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderUserID)
			if raw == "" {
				return invalidUser("The x-user-id header is required.")
			}

			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || id == 0 {
				return invalidUser("The x-user-id header must be a positive integer.")
			}

			var user models.User
			err = db.WithContext(c.Request().Context()).Select("id").First(&user, uint(id)).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidUser("The selected x-user-id is invalid.")
			} else if err != nil {
				return apperr.Internal("Failed to resolve user", err)
			}

			c.Set(ContextKeyUserID, user.ID)
			return next(c)
		}
	}
}
