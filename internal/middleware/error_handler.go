package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"installment_app_echo/internal/apperr"
)

const gatewayFailureMessage = "Payment processing failed due to external service"

// JSONErrorHandler renders every error returned by a handler as JSON.
// Classified errors keep their message; anything unclassified is a 500.
func JSONErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var body interface{}

	var he *echo.HTTPError
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		code = apperr.HTTPStatus(ae)
		body = apperrBody(ae)
	case errors.As(err, &he):
		code = he.Code
		msg := http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		body = echo.Map{"message": msg}
	default:
		body = echo.Map{"error": "Internal server error"}
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if code >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s (request %s): %v", c.Request().Method, c.Request().URL.Path, requestID, err)
	} else {
		log.Printf("[WARN] %s %s (request %s): %v", c.Request().Method, c.Request().URL.Path, requestID, err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, body)
	}
	if writeErr != nil {
		log.Printf("failed to write error response: %v", writeErr)
	}
}

func apperrBody(ae *apperr.Error) echo.Map {
	switch ae.Kind {
	case apperr.KindValidation:
		return echo.Map{"message": ae.Message, "errors": ae.Fields}
	case apperr.KindGatewayRejected:
		return echo.Map{"message": gatewayFailureMessage, "error": ae.Message}
	default:
		return echo.Map{"error": ae.Message}
	}
}
