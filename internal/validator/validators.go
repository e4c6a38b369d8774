package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator wraps a go-playground validator configured with a set of rules.
type Validator struct {
	validator *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validator: validator.New()}
}

func (v *Validator) Register(rules ...ValidationRule) {
	for _, validationRule := range rules {
		validationRule.Rule(v.validator)
	}
}

// Struct validates s and turns every failed field into one readable error,
// all of them aggregated.
func (v *Validator) Struct(s any) error {
	err := v.validator.Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}
	return utilerrors.NewAggregate(errs)
}

// Var validates a single value against a tag, e.g. "notblank".
func (v *Validator) Var(field any, tag string) error {
	return v.validator.Var(field, tag)
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "positive_duration":
		return fmt.Errorf("%s must be a positive duration, got %v", fe.Namespace(), fe.Value())
	case "gt":
		return fmt.Errorf("%s must be greater than %s, got %v", fe.Namespace(), fe.Param(), fe.Value())
	case "gtfield":
		return fmt.Errorf("%s must be greater than %s, got %v", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed the %q rule", fe.Namespace(), fe.Tag())
	}
}
