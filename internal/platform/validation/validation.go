// Package validation checks struct tags with a shared validator instance.
package validation

import (
	"errors"
	"fleet-planning-service/internal/domain"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// FieldError is a failed struct validation. It wraps domain.ErrInvalidInput.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return domain.ErrInvalidInput.Error() + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() []error { return []error{domain.ErrInvalidInput, e.Err} }

// Struct validates v against its `validate` tags and reports the first
// offending field.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		fe := &FieldError{Err: formatValidationError(err)}
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			fe.Field = errs[0].Field()
		}
		return fe
	}
	return nil
}

func formatValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	for _, e := range errs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "gtefield":
			return fmt.Errorf("%s: must not be less than %s", field, param)
		case "alpha":
			return fmt.Errorf("%s: must be alphabetic", field)
		case "oneof":
			return fmt.Errorf("%s: must be one of %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// FailedField names the first field that failed validation, or "".
func FailedField(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
