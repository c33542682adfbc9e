package availability

import (
	"context"
	"sort"
	"time"

	"stayloop/internal/domain/booking"
	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/daterange"
)

// Checker answers availability questions against the booking ledger.
// A listing is free for a stay when no pending or confirmed booking
// overlaps it. Half-open ranges mean a checkout day can be another
// guest's check-in day.
type Checker struct {
	bookings booking.Repository
}

func NewChecker(repo booking.Repository) *Checker {
	return &Checker{bookings: repo}
}

// IsAvailable reports whether the stay is free of blocking bookings.
// exclude skips one booking, used when a booking re-checks its own slot.
func (c *Checker) IsAvailable(ctx context.Context, listingID listings.ListingID, stay daterange.DateRange, exclude booking.BookingID) (bool, error) {
	conflicts, err := c.bookings.FindConflicting(ctx, listingID, stay, exclude)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// OccupiedDates lists every night within the window that is taken by a
// blocking booking, deduplicated and sorted ascending.
func (c *Checker) OccupiedDates(ctx context.Context, listingID listings.ListingID, window daterange.DateRange) ([]time.Time, error) {
	conflicts, err := c.bookings.FindConflicting(ctx, listingID, window, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[time.Time]struct{})
	for _, b := range conflicts {
		b.Range.EachNight(func(night time.Time) {
			if window.Contains(night) {
				seen[night] = struct{}{}
			}
		})
	}
	dates := make([]time.Time, 0, len(seen))
	for night := range seen {
		dates = append(dates, night)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}
