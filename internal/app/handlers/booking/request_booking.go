package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayloop/internal/app/availability"
	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/middleware"
	"stayloop/internal/app/outbox"
	"stayloop/internal/app/policies"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainpricing "stayloop/internal/domain/pricing"
	domainrange "stayloop/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string `validate:"required"`
	ListingID       string `validate:"required"`
	GuestID         string `validate:"required"`
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          domainbooking.GuestCounts
	SpecialRequests string
	GuestMessage    string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Calculator domainpricing.Calculator
	Notifier   policies.Notifier
	Chat       policies.ChatRelay
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fault.Validation("dates", err.Error())
	}
	now := time.Now().UTC()
	if dr.CheckIn.Before(now.Truncate(24 * time.Hour)) {
		return nil, fault.Validation("dates", "check-in date is in the past")
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return nil, fault.NotFound("listing not found")
		}
		return nil, err
	}
	if !listing.Bookable() {
		return nil, fault.PolicyViolation("listing is not accepting bookings")
	}
	if string(listing.Host) == cmd.GuestID {
		return nil, fault.PolicyViolation("hosts cannot book their own listing")
	}
	if cmd.Guests.Total() > listing.GuestsLimit {
		return nil, fault.Validation("capacity", "guest count exceeds listing capacity")
	}
	if cmd.Guests.Pets > 0 && !listing.HouseRules.PetsAllowed {
		return nil, fault.PolicyViolation("pets are not allowed at this listing")
	}
	nights := dr.Nights()
	if listing.MinStay > 0 && nights < listing.MinStay {
		return nil, fault.Validation("min_stay", "stay is shorter than the listing minimum")
	}
	if listing.MaxStay > 0 && nights > listing.MaxStay {
		return nil, fault.Validation("max_stay", "stay is longer than the listing maximum")
	}

	checker := availability.NewChecker(unit.Booking())
	free, err := checker.IsAvailable(ctx, listing.ID, dr, "")
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, fault.Conflict("listing is not available for the requested dates")
	}

	price, err := h.Calculator.Quote(listing.Pricing.BasePrice, listing.Pricing.CleaningFee, dr)
	if err != nil {
		return nil, fault.Validation("pricing", err.Error())
	}

	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		ListingID:       listing.ID,
		GuestID:         cmd.GuestID,
		HostID:          string(listing.Host),
		Range:           dr,
		Guests:          cmd.Guests,
		Price:           price,
		SpecialRequests: cmd.SpecialRequests,
		GuestMessage:    cmd.GuestMessage,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, fault.Validation("guests", err.Error())
	}

	if h.Chat != nil {
		threadID, err := h.Chat.OpenThread(ctx, booking.GuestID, booking.HostID, string(booking.ID))
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("chat thread not opened", "booking_id", booking.ID, "error", err)
			}
		} else {
			booking.SetChatThread(threadID, now)
		}
	}

	if err := unit.Booking().Save(ctx, booking); err != nil {
		return nil, err
	}

	pending := booking.PendingEvents()
	booking.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	h.notifyHost(ctx, booking)

	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", booking.ID, "listing_id", booking.ListingID, "guest_id", booking.GuestID, "nights", nights, "total", price.Total.Amount)
	}

	return &RequestBookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.State),
		Total:     price.Total.Amount,
		Currency:  price.Currency,
	}, nil
}

func (h *RequestBookingHandler) notifyHost(ctx context.Context, b *domainbooking.Booking) {
	if h.Notifier == nil {
		return
	}
	data := map[string]string{
		"booking_id": string(b.ID),
		"listing_id": string(b.ListingID),
		"check_in":   b.Range.CheckIn.Format(time.RFC3339),
		"check_out":  b.Range.CheckOut.Format(time.RFC3339),
	}
	if err := h.Notifier.Send(ctx, b.HostID, policies.TemplateNewBooking, data); err != nil && h.Logger != nil {
		h.Logger.Warn("host notification failed", "booking_id", b.ID, "host_id", b.HostID, "error", err)
	}
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
