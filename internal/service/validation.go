package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/libraryapp/library-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors to user-friendly domain
// errors. The offending field names travel in the error details so clients
// can highlight the bad arguments.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if domainerrors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			details := map[string]string{"field": field}
			switch e.Tag() {
			case "required":
				return domainerrors.BadUserInputf("%s is required", field).WithDetails(details)
			case "min":
				return domainerrors.BadUserInputf("%s must be at least %s characters", field, e.Param()).WithDetails(details)
			case "max":
				return domainerrors.BadUserInputf("%s exceeds maximum length of %s characters", field, e.Param()).WithDetails(details)
			case "gte":
				return domainerrors.BadUserInputf("%s must be %s or greater", field, e.Param()).WithDetails(details)
			default:
				return domainerrors.BadUserInputf("%s is invalid", field).WithDetails(details)
			}
		}
	}
	return err
}
