package booking

import (
	"context"
	"errors"
	"time"

	"stayloop/internal/app/availability"
	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
	domainrange "stayloop/internal/domain/shared/daterange"
)

const (
	checkAvailabilityKey = "availability.check"
	occupiedDatesKey     = "availability.occupied"
)

type CheckAvailabilityQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityResult, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.AvailabilityResult{}, fault.Validation("dates", err.Error())
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if _, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID)); err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return dto.AvailabilityResult{}, fault.NotFound("listing not found")
		}
		return dto.AvailabilityResult{}, err
	}

	checker := availability.NewChecker(unit.Booking())
	free, err := checker.IsAvailable(execCtx, domainlistings.ListingID(q.ListingID), dr, "")
	if err != nil {
		return dto.AvailabilityResult{}, err
	}
	return dto.AvailabilityResult{
		ListingID: q.ListingID,
		CheckIn:   dr.CheckIn,
		CheckOut:  dr.CheckOut,
		Available: free,
	}, nil
}

type OccupiedDatesQuery struct {
	ListingID string
	From      time.Time
	To        time.Time
}

func (q OccupiedDatesQuery) Key() string { return occupiedDatesKey }

// OccupiedDatesHandler lists the taken nights inside a window so clients
// can grey out calendar days.
type OccupiedDatesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OccupiedDatesHandler) Handle(ctx context.Context, q OccupiedDatesQuery) (dto.OccupiedDates, error) {
	window, err := domainrange.New(q.From, q.To)
	if err != nil {
		return dto.OccupiedDates{}, fault.Validation("dates", err.Error())
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OccupiedDates{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	checker := availability.NewChecker(unit.Booking())
	dates, err := checker.OccupiedDates(execCtx, domainlistings.ListingID(q.ListingID), window)
	if err != nil {
		return dto.OccupiedDates{}, err
	}
	return dto.OccupiedDates{ListingID: q.ListingID, Dates: dates}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityResult] = (*CheckAvailabilityHandler)(nil)
var _ queries.Handler[OccupiedDatesQuery, dto.OccupiedDates] = (*OccupiedDatesHandler)(nil)
