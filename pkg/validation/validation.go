// Package validation wraps go-playground/validator and converts its
// failures into AppErrors.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// Validator validates inbound commands and queries
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom ingredient rules registered
func New() *Validator {
	validate := validator.New()

	// Report JSON field names so messages match what callers send
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("ingredient_text", validateIngredientText)

	return &Validator{validate: validate}
}

// Struct validates s and returns a VALIDATION_FAILED AppError listing every
// failed field, or nil.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return errors.NewValidationErrors(out)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "ingredient_text":
		return fmt.Sprintf("%s is not a valid ingredient name", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// validateIngredientText rejects markup and control characters in free
// ingredient text.
func validateIngredientText(fl validator.FieldLevel) bool {
	text := fl.Field().String()
	if strings.TrimSpace(text) == "" || len(text) > 200 {
		return false
	}

	lower := strings.ToLower(text)
	for _, danger := range []string{"<", ">", "javascript:", "onload", "onerror"} {
		if strings.Contains(lower, danger) {
			return false
		}
	}
	for _, r := range text {
		if r < 0x20 && r != '\t' {
			return false
		}
	}
	return true
}
