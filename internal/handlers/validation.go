package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MINHYEOKJEON99/mat-we/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report the form field name, not the Go field name
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("sport", func(fl validator.FieldLevel) bool {
		return models.SportType(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})

	return v
}

// validateForm returns the message for the first failing field, or "".
func validateForm(form interface{}) string {
	err := validate.Struct(form)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid request"
	}
	return formatValidationError(fieldErrs[0])
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gte":
		return e.Field() + " must be " + e.Param() + " or greater"
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "alphanum":
		return e.Field() + " must contain only letters and digits"
	case "url":
		return e.Field() + " must be a valid URL"
	case "uuid":
		return e.Field() + " must be a valid id"
	case "sport":
		return e.Field() + " must be one of: jiujitsu, wrestling, judo, mma"
	case "role":
		return e.Field() + " must be instructor or student"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
