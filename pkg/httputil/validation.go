package httputil

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/medflow/pos-allocation/pkg/errors"
)

var validate = newValidator()

// newValidator reports fields by their JSON name so error details match the request body
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate validates a struct using go-playground/validator
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}

		details := make(map[string]string)
		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "excluded_with":
		return "cannot be combined with " + e.Param()
	case "dive":
		return "contains an invalid entry"
	default:
		return "invalid value"
	}
}
