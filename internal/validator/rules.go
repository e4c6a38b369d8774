package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

// NewPayloadValidationRules returns the rules used to check job submissions.
func NewPayloadValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("notblank", validators.NotBlank),
		},
		{
			Rule: registerFn("field_name", fieldNameValidator),
		},
	}
}

func NewTrackerValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("positive_duration", positiveDurationValidator),
		},
	}
}
