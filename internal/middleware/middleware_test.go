package middleware_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/middleware"
	"installment_app_echo/internal/testutil"
)

func render(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/pay", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	middleware.JSONErrorHandler(err, c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestJSONErrorHandler(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		code, body := render(t, apperr.Validation("The given data was invalid.", map[string][]string{
			"installments": {"The installments field is required."},
		}))
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "The given data was invalid.", body["message"])
		assert.Contains(t, body["errors"], "installments")
	})

	t.Run("business rejection", func(t *testing.T) {
		code, body := render(t, apperr.New(apperr.KindAmountMismatch, "Incorrect amount. Expected: 10.00, received: 5"))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Incorrect amount. Expected: 10.00, received: 5", body["error"])
	})

	t.Run("gateway", func(t *testing.T) {
		code, body := render(t, apperr.New(apperr.KindGatewayRejected, "card declined"))
		assert.Equal(t, http.StatusBadGateway, code)
		assert.Equal(t, "Payment processing failed due to external service", body["message"])
		assert.Equal(t, "card declined", body["error"])
	})

	t.Run("echo error", func(t *testing.T) {
		code, body := render(t, echo.ErrMethodNotAllowed)
		assert.Equal(t, http.StatusMethodNotAllowed, code)
		assert.Equal(t, "Method Not Allowed", body["message"])
	})

	t.Run("unclassified", func(t *testing.T) {
		code, body := render(t, errors.New("connection reset"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Internal server error", body["error"])
	})
}

func TestRequireUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "alice")

	e := echo.New()
	e.HTTPErrorHandler = middleware.JSONErrorHandler
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Get(middleware.ContextKeyUserID)})
	}, middleware.RequireUser(db))

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantMsg  string
	}{
		{"missing", "", http.StatusUnprocessableEntity, "The x-user-id header is required."},
		{"malformed", "12abc", http.StatusUnprocessableEntity, "The x-user-id header must be a positive integer."},
		{"zero", "0", http.StatusUnprocessableEntity, "The x-user-id header must be a positive integer."},
		{"unknown", "4242", http.StatusUnprocessableEntity, "The selected x-user-id is invalid."},
		{"known", fmt.Sprint(user.ID), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(middleware.HeaderUserID, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantMsg == "" {
				assert.EqualValues(t, user.ID, body["id"])
				return
			}
			errs := body["errors"].(map[string]interface{})
			assert.Equal(t, []interface{}{tt.wantMsg}, errs[middleware.HeaderUserID])
		})
	}
}
