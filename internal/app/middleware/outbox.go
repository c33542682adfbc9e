package middleware

import (
	"context"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/outbox"
)

// OutboxFlush flushes staged event records after the handler succeeds.
// The durable store treats Flush as a no-op (its worker drains committed
// documents); the in-memory outbox publishes to its sink here.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return res, box.Flush(ctx)
		})
	}
}
