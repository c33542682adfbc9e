package middleware

import (
	"context"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/uow"
)

// TxOptionsProvider picks per-command transaction options. Nil means
// defaults for every command.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction opens a unit of work around every dispatched command. The
// unit rides the context down to the handler; a handler error, a failed
// commit, or a panic rolls everything back.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: nil uow factory")
	}
	if optsProvider == nil {
		optsProvider = func(commands.Command) uow.TxOptions { return uow.TxOptions{} }
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			unit, err := factory.Begin(ctx, optsProvider(cmd))
			if err != nil {
				return nil, err
			}
			execCtx := uow.ContextWithUnitOfWork(sessionContext(ctx, unit), unit)
			return runInUnit(execCtx, unit, next, cmd)
		})
	}
}

// sessionContext lets session-bound backends (mongo) thread their session
// through the context alongside the unit itself.
func sessionContext(ctx context.Context, unit uow.UnitOfWork) context.Context {
	type contextInjector interface {
		InjectContext(context.Context) context.Context
	}
	if injector, ok := unit.(contextInjector); ok {
		return injector.InjectContext(ctx)
	}
	return ctx
}

func runInUnit(ctx context.Context, unit uow.UnitOfWork, next commands.Bus, cmd commands.Command) (result any, err error) {
	settled := false
	defer func() {
		// Rollback fires on handler panics too, not just plain errors.
		if !settled {
			_ = unit.Rollback(ctx)
		}
	}()

	result, err = next.Dispatch(ctx, cmd)
	if err == nil {
		err = unit.Commit(ctx)
	}
	if err != nil {
		return nil, err
	}
	settled = true
	return result, nil
}
