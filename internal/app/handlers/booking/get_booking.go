package booking

import (
	"context"
	"errors"
	"strings"

	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	ActorID   string
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

// GetBookingHandler returns the full booking detail to its guest or host.
type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingDetail, error) {
	actorID := strings.TrimSpace(q.ActorID)
	if actorID == "" {
		return dto.BookingDetail{}, fault.Unauthorized("actor id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	booking, err := unit.Booking().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return dto.BookingDetail{}, fault.NotFound("booking not found")
		}
		return dto.BookingDetail{}, err
	}
	if !booking.IsParticipant(actorID) {
		return dto.BookingDetail{}, fault.Unauthorized("booking belongs to another user")
	}

	var listing *domainlistings.Listing
	if found, err := unit.Listings().ByID(execCtx, booking.ListingID); err == nil {
		listing = found
	}

	return dto.MapBookingDetail(booking, listing), nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingDetail] = (*GetBookingHandler)(nil)
