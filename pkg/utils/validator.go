package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a request DTO and returns field -> message pairs.
func ValidateStruct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]string{"_": err.Error()}
	}

	errs := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "len":
			errs[field] = fmt.Sprintf("%s must have exactly %s elements", field, fe.Param())
		case "max":
			errs[field] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		default:
			errs[field] = fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
		}
	}
	return errs
}
