package uow

import (
	"context"
	"errors"
)

// ErrUnitOfWorkMissing is returned by handlers that only run inside the
// transaction middleware when no unit was placed in the context.
var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork attaches unit to the context for downstream handlers.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext returns the unit attached by ContextWithUnitOfWork, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok
}
