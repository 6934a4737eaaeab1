package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/guestlist/internal/model"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator installed on the echo instance.  Field
// errors are reported under their JSON names.  It adds "timeofday" (HH:MM
// or HH:MM:SS) and "isodate" (YYYY-MM-DD).
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := model.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// bindValid binds the body into dst and validates it, writing the 400
// response itself.  It returns false when the handler should stop.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, badRequest(c, "invalid_request", "invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return false, c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "invalid_request",
				"message": "request validation failed",
				"fields":  fields,
			})
		}
		return false, badRequest(c, "invalid_request", err.Error())
	}
	return true, nil
}
