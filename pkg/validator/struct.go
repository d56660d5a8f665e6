package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// errorMessages is a map of validation tags to custom error messages.
var errorMessages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s characters long.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"lte":      "The field '%s' must be less than or equal to %s.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"gt":       "The field '%s' must be greater than %s.",
	"lt":       "The field '%s' must be less than %s.",
	"oneof":    "The field '%s' must be one of %s.",
}

// parseMessage constructs a friendly error message based on the validation tag.
func parseMessage(jsonTag string, e validator.FieldError) string {
	if msg, exists := errorMessages[e.Tag()]; exists {
		// Check the number of %s placeholders in the custom message
		placeholderCount := strings.Count(msg, "%s")
		if placeholderCount == 1 {
			return fmt.Sprintf(msg, jsonTag)
		} else if placeholderCount == 2 {
			return fmt.Sprintf(msg, jsonTag, e.Param())
		}
	}
	// Default error message if no custom message is defined for the tag.
	return fmt.Sprintf("Field '%s' is invalid: %s", jsonTag, e.Tag())
}

// ValidateStruct validates a struct and returns a map of JSON field names to friendly error messages.
func ValidateStruct(s any) map[string]string {
	validationErrors := make(map[string]string)

	err := validate.Struct(s)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			structType := reflect.TypeOf(s).Elem()
			for _, e := range validationErrs {
				field, _ := structType.FieldByName(e.StructField())
				jsonTag := field.Tag.Get("json")
				if jsonTag == "" {
					jsonTag = e.StructField()
				} else {
					jsonTag = strings.Split(jsonTag, ",")[0]
				}
				validationErrors[jsonTag] = parseMessage(jsonTag, e)
			}
		}
	}

	return validationErrors
}
