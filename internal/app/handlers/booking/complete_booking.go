package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/outbox"
	"stayloop/internal/app/policies"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
)

const completeBookingKey = "booking.complete"

type CompleteBookingCommand struct {
	ActorID   string
	BookingID string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

// CompleteBookingHandler closes a confirmed booking whose stay has ended.
// The periodic sweeper drives the same transition for bookings nobody
// touches.
type CompleteBookingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (*BookingActionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	booking, err := unit.Booking().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return nil, fault.NotFound("booking not found")
		}
		return nil, err
	}
	if cmd.ActorID != "" && !booking.IsParticipant(cmd.ActorID) {
		return nil, fault.Unauthorized("booking belongs to another user")
	}

	now := time.Now().UTC()
	if err := booking.Complete(now); err != nil {
		if errors.Is(err, domainbooking.ErrStayNotFinished) {
			return nil, fault.Conflict("stay has not ended yet")
		}
		return nil, fault.Conflict("only confirmed bookings can be completed")
	}
	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := stageEvents(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}

	notify(ctx, h.Notifier, h.Logger, booking.GuestID, policies.TemplateBookingCompleted, booking)
	notify(ctx, h.Notifier, h.Logger, booking.HostID, policies.TemplateBookingCompleted, booking)

	if h.Logger != nil {
		h.Logger.Info("booking completed", "booking_id", booking.ID)
	}

	return actionResult(booking), nil
}

var _ commands.Handler[CompleteBookingCommand, *BookingActionResult] = (*CompleteBookingHandler)(nil)
