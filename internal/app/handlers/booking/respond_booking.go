package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stayloop/internal/app/availability"
	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/outbox"
	"stayloop/internal/app/policies"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
)

const (
	confirmBookingKey = "booking.confirm"
	rejectBookingKey  = "booking.reject"
)

type ConfirmBookingCommand struct {
	HostID    string
	BookingID string
	Message   string
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type RejectBookingCommand struct {
	HostID    string
	BookingID string
	Reason    string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type BookingActionResult struct {
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type ConfirmBookingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (*BookingActionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	booking, err := loadHostBooking(ctx, unit, cmd.BookingID, cmd.HostID)
	if err != nil {
		return nil, err
	}
	if booking.State != domainbooking.StatePending {
		return nil, fault.Conflict("only pending bookings can be confirmed")
	}

	checker := availability.NewChecker(unit.Booking())
	free, err := checker.IsAvailable(ctx, booking.ListingID, booking.Range, booking.ID)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fault.Conflict("dates were taken by another confirmed booking")
	}

	now := time.Now().UTC()
	if err := booking.Confirm(strings.TrimSpace(cmd.Message), now); err != nil {
		return nil, fault.Conflict(err.Error())
	}
	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := stageEvents(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}

	notify(ctx, h.Notifier, h.Logger, booking.GuestID, policies.TemplateBookingConfirmed, booking)

	if h.Logger != nil {
		h.Logger.Info("booking confirmed", "booking_id", booking.ID, "host_id", cmd.HostID, "listing_id", booking.ListingID)
	}

	return actionResult(booking), nil
}

type RejectBookingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*BookingActionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	booking, err := loadHostBooking(ctx, unit, cmd.BookingID, cmd.HostID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "declined by host"
	}

	now := time.Now().UTC()
	if err := booking.Reject(reason, now); err != nil {
		return nil, fault.Conflict("only pending bookings can be rejected")
	}
	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := stageEvents(ctx, h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}

	notify(ctx, h.Notifier, h.Logger, booking.GuestID, policies.TemplateBookingRejected, booking)

	if h.Logger != nil {
		h.Logger.Info("booking rejected", "booking_id", booking.ID, "host_id", cmd.HostID, "reason", reason)
	}

	return actionResult(booking), nil
}

func loadHostBooking(ctx context.Context, unit uow.UnitOfWork, bookingID, hostID string) (*domainbooking.Booking, error) {
	if strings.TrimSpace(hostID) == "" {
		return nil, fault.Unauthorized("host id is required")
	}
	if strings.TrimSpace(bookingID) == "" {
		return nil, fault.Validation("booking_id", "booking id is required")
	}
	booking, err := unit.Booking().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return nil, fault.NotFound("booking not found")
		}
		return nil, err
	}
	if booking.HostID != hostID {
		return nil, fault.Unauthorized("booking belongs to another host")
	}
	return booking, nil
}

func stageEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, b *domainbooking.Booking) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}

func notify(ctx context.Context, notifier policies.Notifier, logger *slog.Logger, to, template string, b *domainbooking.Booking) {
	if notifier == nil {
		return
	}
	data := map[string]string{
		"booking_id": string(b.ID),
		"listing_id": string(b.ListingID),
		"status":     string(b.State),
	}
	if err := notifier.Send(ctx, to, template, data); err != nil && logger != nil {
		logger.Warn("notification failed", "booking_id", b.ID, "to", to, "template", template, "error", err)
	}
}

func actionResult(b *domainbooking.Booking) *BookingActionResult {
	return &BookingActionResult{
		BookingID:     string(b.ID),
		Status:        string(b.State),
		PaymentStatus: string(b.Payment),
	}
}

var _ commands.Handler[ConfirmBookingCommand, *BookingActionResult] = (*ConfirmBookingHandler)(nil)
var _ commands.Handler[RejectBookingCommand, *BookingActionResult] = (*RejectBookingHandler)(nil)
