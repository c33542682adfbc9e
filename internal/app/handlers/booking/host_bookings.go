package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

const (
	listHostBookingsKey    = "host.bookings.list"
	hostBookingStatsKey    = "host.bookings.stats"
	allStatusesFilterValue = "all"
)

type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.HostBookingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.HostBookingCollection{}, fault.Unauthorized("host id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostBookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Booking().ListByHost(execCtx, hostID)
	if err != nil {
		return dto.HostBookingCollection{}, err
	}

	statusFilter := strings.ToLower(strings.TrimSpace(q.Status))
	allStatuses := statusFilter == "" || statusFilter == allStatusesFilterValue

	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.HostBookingSummary, 0, len(bookings))
	for _, booking := range bookings {
		if !allStatuses && string(booking.State) != statusFilter {
			continue
		}
		listing, err := loadListing(execCtx, unit.Listings(), booking.ListingID, listingCache)
		if err != nil && h.Logger != nil {
			h.Logger.Warn("listing snapshot missing for booking", "booking_id", booking.ID, "listing_id", booking.ListingID, "error", err)
		}
		items = append(items, dto.MapHostBookingSummary(booking, listing))
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "host_id", hostID, "count", len(items), "status", statusFilter)
	}

	return dto.HostBookingCollection{Items: items}, nil
}

type HostBookingStatsQuery struct {
	HostID string
}

func (q HostBookingStatsQuery) Key() string { return hostBookingStatsKey }

// HostBookingStatsHandler aggregates counts and captured revenue per status
// for the host dashboard.
type HostBookingStatsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *HostBookingStatsHandler) Handle(ctx context.Context, q HostBookingStatsQuery) (dto.HostBookingStats, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.HostBookingStats{}, fault.Unauthorized("host id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostBookingStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	stats, err := unit.Booking().StatsByHost(execCtx, hostID)
	if err != nil {
		return dto.HostBookingStats{}, err
	}
	return dto.MapHostBookingStats(stats), nil
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

var _ queries.Handler[ListHostBookingsQuery, dto.HostBookingCollection] = (*ListHostBookingsHandler)(nil)
var _ queries.Handler[HostBookingStatsQuery, dto.HostBookingStats] = (*HostBookingStatsHandler)(nil)
