package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateRequest runs the struct's `validate` tags.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

func toFieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("failed on '%s'", e.Tag())
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "oneof":
			msg = "must be one of " + e.Param()
		case "min":
			msg = "must be at least " + e.Param()
		case "max":
			msg = "must be at most " + e.Param()
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}
