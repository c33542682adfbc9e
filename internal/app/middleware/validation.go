package middleware

import (
	"context"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/queries"
)

// Validator checks a command or query before any handler sees it.
// The concrete implementation wraps go-playground/validator tags.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

func mustValidator(v Validator) {
	if v == nil {
		panic("middleware: nil validator")
	}
}

// Validation rejects invalid commands at the bus edge, so handlers can
// trust the shape of their input.
func Validation(v Validator) CommandMiddleware {
	mustValidator(v)
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

// QueryValidation does the same for the query bus.
func QueryValidation(v Validator) QueryMiddleware {
	mustValidator(v)
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
