package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "github.com/shivam7053/raga-vachika/pkg/errors"
)

// RequestValidator implements echo.Validator with go-playground/validator.
// Field names in errors are the JSON names the client sent.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return apperrors.InvalidArgument(fmt.Sprintf("invalid %s: is required", fe.Field()), err)
		}
		return apperrors.InvalidArgument(fmt.Sprintf("invalid %s: failed %s", fe.Field(), fe.Tag()), err)
	}
	return apperrors.InvalidArgument("invalid request", err)
}

// bindRequest decodes the body into req and runs the registered validator
func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.InvalidArgument("invalid request body", err)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
