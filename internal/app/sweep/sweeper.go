package sweep

import (
	"context"
	"log/slog"
	"time"

	"stayloop/internal/app/outbox"
	"stayloop/internal/app/uow"
)

// Sweeper completes confirmed bookings whose stay has ended. It runs on a
// timer and is also invoked opportunistically when a guest lists their
// bookings, so stale rows converge even between ticks.
type Sweeper struct {
	Factory uow.UoWFactory
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func New(factory uow.UoWFactory, box outbox.Outbox, logger *slog.Logger) *Sweeper {
	return &Sweeper{Factory: factory, Outbox: box, Logger: logger}
}

// SweepGuest closes the given guest's ended confirmed bookings. Empty
// guestID sweeps across all guests.
func (s *Sweeper) SweepGuest(ctx context.Context, guestID string, now time.Time) (int, error) {
	unit, err := s.Factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()
	runCtx := uow.ContextWithUnitOfWork(ctx, unit)

	ended, err := unit.Booking().ListConfirmedEndedBefore(runCtx, guestID, now)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, b := range ended {
		if err := b.Complete(now); err != nil {
			continue
		}
		if err := unit.Booking().Save(runCtx, b); err != nil {
			return closed, err
		}
		pending := b.PendingEvents()
		b.ClearEvents()
		if err := outbox.RecordDomainEvents(runCtx, s.Outbox, s.encoder(), pending); err != nil {
			return closed, err
		}
		closed++
	}
	if closed == 0 {
		return 0, nil
	}
	if err := unit.Commit(runCtx); err != nil {
		return 0, err
	}
	committed = true
	if s.Logger != nil {
		s.Logger.Info("completed ended bookings", "count", closed, "guest_id", guestID)
	}
	return closed, nil
}

// Run ticks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepGuest(ctx, "", time.Now().UTC()); err != nil && s.Logger != nil {
				s.Logger.Error("booking sweep failed", "error", err)
			}
		}
	}
}

func (s *Sweeper) encoder() outbox.EventEncoder {
	if s.Encoder != nil {
		return s.Encoder
	}
	return outbox.JSONEventEncoder{}
}
