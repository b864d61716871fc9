package intake

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var validationMessages = map[string]string{
	"required":         "is required",
	"required_without": "is required when %s is not set",
	"oneof":            "must be one of: %s",
	"gte":              "must be at least %s",
	"lte":              "must be at most %s",
	"min":              "must have at least %s entries",
}

// ValidateStruct checks the validate tags on s
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FormatValidationErrors turns validator errors into one readable line
func FormatValidationErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		if strings.Contains(msg, "%s") {
			param := fe.Param()
			if fe.Tag() == "oneof" {
				param = strings.Join(strings.Fields(param), ", ")
			}
			msg = strings.Replace(msg, "%s", param, 1)
		}
		parts = append(parts, strings.ToLower(fe.Field())+" "+msg)
	}
	return strings.Join(parts, ", ")
}
