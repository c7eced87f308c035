package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"installment_app_echo/internal/apperr"
	"installment_app_echo/internal/models"
)

// Validator adapts go-playground/validator to echo and reports failures as
// apperr validation errors keyed by JSON field path.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated by their numeric value
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterStructValidation(validatePayAmount, PayRequest{})

	return &Validator{validate: v}
}

// validatePayAmount keeps total_payment within what the payments table can
// store, so a rejected attempt is recorded with the amount actually submitted.
func validatePayAmount(sl validator.StructLevel) {
	req := sl.Current().Interface().(PayRequest)
	amount := req.TotalPayment
	if !amount.IsPositive() {
		return
	}
	if !amount.Equal(amount.Truncate(models.AmountScale)) {
		sl.ReportError(amount, "total_payment", "TotalPayment", "money_scale", fmt.Sprint(models.AmountScale))
	} else if amount.GreaterThan(models.MaxAmount) {
		sl.ReportError(amount, "total_payment", "TotalPayment", "money_max", models.MaxAmount.StringFixed(2))
	}
}

func (cv *Validator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("Validation failed", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		fields[path] = append(fields[path], fieldMessage(path, fe))
	}
	return apperr.Validation("The given data was invalid.", fields)
}

// fieldPath turns "CreateOrderRequest.products[0].quantity" into "products.0.quantity".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func fieldMessage(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("The %s field is required.", path)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must have at least %s items.", path, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", path, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", path, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", path, fe.Param())
	case "money_scale":
		return fmt.Sprintf("The %s field must have at most %s decimal places.", path, fe.Param())
	case "money_max":
		return fmt.Sprintf("The %s field must not be greater than %s.", path, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", path)
	}
	return fmt.Sprintf("The %s field is invalid.", path)
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("The given data was invalid.", map[string][]string{
			"body": {"The request body must be valid JSON."},
		})
	}
	return c.Validate(req)
}
