package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// contactPattern allows digits plus the usual phone punctuation.
var contactPattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration fails only on a bad pattern; registering a non-function
	// cannot happen here, so the error is ignored.
	_ = v.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
		return contactPattern.MatchString(fl.Field().String())
	})
	return v
}

// validateRequest runs struct validation and flattens the first failure into
// a caller-facing message.
func validateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return fmt.Errorf("%s", validationMessage(verrs[0]))
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "contact":
		return fmt.Sprintf("%s may contain only digits, spaces, +, -, ( and )", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
