package validator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var fieldNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func fieldNameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return fieldNameRegex.MatchString(val)
}

func positiveDurationValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(time.Duration)
	if !ok {
		return false
	}
	return val > 0
}
