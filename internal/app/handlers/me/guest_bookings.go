package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/sweep"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainreviews "stayloop/internal/domain/reviews"
)

const listGuestBookingsKey = "me.bookings.list"

type ListGuestBookingsQuery struct {
	GuestID string
	Status  string
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

// ListGuestBookingsHandler returns the guest's bookings newest first. Ended
// confirmed bookings are completed on the way so the list never shows a
// stale confirmed stay.
type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Sweeper    *sweep.Sweeper
	Logger     *slog.Logger
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.GuestBookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.GuestBookingCollection{}, fault.Unauthorized("guest id is required")
	}

	now := time.Now().UTC()
	if h.Sweeper != nil {
		if _, err := h.Sweeper.SweepGuest(ctx, guestID, now); err != nil && h.Logger != nil {
			h.Logger.Warn("opportunistic booking sweep failed", "guest_id", guestID, "error", err)
		}
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.GuestBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Booking().ListByGuest(execCtx, guestID)
	if err != nil {
		return dto.GuestBookingCollection{}, err
	}

	statusFilter := strings.ToLower(strings.TrimSpace(q.Status))
	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.GuestBookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		if statusFilter != "" && string(booking.State) != statusFilter {
			continue
		}
		listing, err := loadListing(execCtx, unit.Listings(), booking.ListingID, listingCache)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("listing snapshot missing for booking", "booking_id", booking.ID, "listing_id", booking.ListingID, "error", err)
		}
		reviewSubmitted := booking.Reviews.Guest != ""
		canReview := !reviewSubmitted && reviewable(booking, now)
		if !reviewSubmitted {
			if existing, err := unit.Reviews().ByBookingRole(execCtx, booking.ID, domainbooking.ReviewByGuest); err == nil && existing != nil {
				reviewSubmitted = true
				canReview = false
			} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) && h.Logger != nil {
				h.Logger.Warn("failed to check review", "booking_id", booking.ID, "guest_id", guestID, "error", err)
			}
		}
		items = append(items, dto.MapGuestBookingSummary(booking, listing, reviewSubmitted, canReview))
	}

	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", guestID, "count", len(items))
	}

	return dto.GuestBookingCollection{Items: items}, nil
}

func reviewable(b *domainbooking.Booking, now time.Time) bool {
	if b.State != domainbooking.StateConfirmed && b.State != domainbooking.StateCompleted {
		return false
	}
	return !b.Range.CheckOut.After(now)
}

func loadListing(
	ctx context.Context,
	repo domainlistings.ListingRepository,
	id domainlistings.ListingID,
	cache map[domainlistings.ListingID]*domainlistings.Listing,
) (*domainlistings.Listing, error) {
	if listing, ok := cache[id]; ok {
		return listing, nil
	}
	listing, err := repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = listing
	return listing, nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.GuestBookingCollection] = (*ListGuestBookingsHandler)(nil)
