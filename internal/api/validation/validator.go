package validation

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sinoafrica/freightbridge/internal/api/dto/common"
	"github.com/sinoafrica/freightbridge/internal/contact"
)

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("locale", validateLocale)
}

// RegisterGinValidators installs the custom validators on gin's binding engine.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return RegisterValidators(v)
}

// validateLocale checks that the locale has a message catalog
func validateLocale(fl validator.FieldLevel) bool {
	return contact.IsSupportedLocale(fl.Field().String())
}

// FormatValidationError formats validation errors into a user-friendly response
func FormatValidationError(err error) []common.ValidationError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	out := make([]common.ValidationError, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, common.ValidationError{
			Field:   e.Field(),
			Message: "failed on the '" + e.Tag() + "' rule",
			Value:   e.Param(),
		})
	}
	return out
}
