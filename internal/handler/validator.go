package handler

import (
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// phonePattern accepts an international number: a leading +, a non-zero
// first digit, then 9 to 15 digits, dashes, dots or parentheses.
var phonePattern = regexp.MustCompile(`^\+[1-9][0-9\-().]{9,15}$`)

// Validator adapts go-playground/validator to echo's Validator interface.
// Field rules live in struct tags on the request DTOs; violations surface
// as 422 responses before any repository is touched.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the validator and registers the custom phone rule.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
