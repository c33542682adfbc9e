package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/outbox"
	"stayloop/internal/app/policies"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	ActorID   string
	BookingID string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	RefundAmount  int64  `json:"refund_amount"`
	Currency      string `json:"currency"`
}

// CancelBookingHandler lets either party cancel a pending or confirmed
// booking. The refund owed is computed from the cancellation policy at the
// moment of cancellation and recorded on the booking.
type CancelBookingHandler struct {
	Policy   domainbooking.RefundPolicy
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" {
		return nil, fault.Unauthorized("actor id is required")
	}

	booking, err := unit.Booking().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return nil, fault.NotFound("booking not found")
		}
		return nil, err
	}
	if !booking.IsParticipant(actorID) {
		return nil, fault.Unauthorized("booking belongs to another user")
	}

	now := time.Now().UTC()
	refund := h.Policy.RefundFor(booking, now)
	if err := booking.Cancel(actorID, strings.TrimSpace(cmd.Reason), refund, now); err != nil {
		return nil, fault.Conflict("booking can no longer be cancelled")
	}
	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := stageEvents(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}

	notify(ctx, h.Notifier, h.Logger, booking.CounterpartOf(actorID), policies.TemplateBookingCancelled, booking)

	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", booking.ID, "actor_id", actorID, "refund", refund.Amount)
	}

	return &CancelBookingResult{
		BookingID:     string(booking.ID),
		Status:        string(booking.State),
		PaymentStatus: string(booking.Payment),
		RefundAmount:  refund.Amount,
		Currency:      refund.Currency,
	}, nil
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
