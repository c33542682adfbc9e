package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"stayloop/internal/app/fault"
)

// StructValidator runs tag-based validation over dispatched messages before
// they reach a handler. Messages without validate tags pass through.
type StructValidator struct {
	validate *validator.Validate
}

func New() *StructValidator {
	return &StructValidator{validate: validator.New()}
}

func (v *StructValidator) Validate(ctx context.Context, message any) error {
	err := v.validate.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// non-struct messages are not validatable, let them through
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		rule := strings.ToLower(first.Field())
		return fault.Validation(rule, fmt.Sprintf("field %s failed on the %q rule", first.Field(), first.Tag()))
	}
	return err
}
