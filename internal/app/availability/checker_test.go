package availability

import (
	"context"
	"testing"
	"time"

	domainbooking "stayloop/internal/domain/booking"
	domainpricing "stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
	"stayloop/internal/infra/storage/memory"
)

func day(d int) time.Time {
	return time.Date(2026, time.August, d, 0, 0, 0, 0, time.UTC)
}

func stay(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	r, err := daterange.New(day(from), day(to))
	if err != nil {
		t.Fatalf("stay: %v", err)
	}
	return r
}

func seedBooking(t *testing.T, repo *memory.BookingRepository, id string, stay daterange.DateRange, confirm bool) *domainbooking.Booking {
	t.Helper()
	snap, err := domainpricing.Calculator{}.Quote(money.Must(10000, "EUR"), money.Zero("EUR"), stay)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: "lst-1",
		GuestID:   "guest-1",
		HostID:    "host-1",
		Range:     stay,
		Guests:    domainbooking.GuestCounts{Adults: 1},
		Price:     snap,
		CreatedAt: day(1),
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if confirm {
		if err := b.Confirm("", day(1)); err != nil {
			t.Fatalf("confirm: %v", err)
		}
	}
	if err := repo.Save(context.Background(), b); err != nil {
		t.Fatalf("save: %v", err)
	}
	return b
}

func TestIsAvailableBlockedByOverlap(t *testing.T) {
	repo := memory.NewBookingRepository()
	seedBooking(t, repo, "bk-1", stay(t, 10, 13), true)
	checker := NewChecker(repo)

	free, err := checker.IsAvailable(context.Background(), "lst-1", stay(t, 12, 15), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if free {
		t.Fatal("overlapping stay should be blocked")
	}
}

func TestIsAvailableTouchingRangesAreFree(t *testing.T) {
	repo := memory.NewBookingRepository()
	seedBooking(t, repo, "bk-1", stay(t, 10, 13), true)
	checker := NewChecker(repo)

	free, err := checker.IsAvailable(context.Background(), "lst-1", stay(t, 13, 16), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !free {
		t.Fatal("stay starting on the previous check-out day should be free")
	}
}

func TestIsAvailablePendingBookingBlocks(t *testing.T) {
	repo := memory.NewBookingRepository()
	seedBooking(t, repo, "bk-1", stay(t, 10, 13), false)
	checker := NewChecker(repo)

	free, err := checker.IsAvailable(context.Background(), "lst-1", stay(t, 11, 12), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if free {
		t.Fatal("pending bookings hold their dates")
	}
}

func TestIsAvailableIgnoresTerminalStates(t *testing.T) {
	repo := memory.NewBookingRepository()
	b := seedBooking(t, repo, "bk-1", stay(t, 10, 13), false)
	if err := b.Reject("no", day(2)); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := repo.Save(context.Background(), b); err != nil {
		t.Fatalf("save: %v", err)
	}
	checker := NewChecker(repo)

	free, err := checker.IsAvailable(context.Background(), "lst-1", stay(t, 10, 13), "")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !free {
		t.Fatal("rejected bookings must not block the calendar")
	}
}

func TestIsAvailableExcludesOwnBooking(t *testing.T) {
	repo := memory.NewBookingRepository()
	seedBooking(t, repo, "bk-1", stay(t, 10, 13), false)
	checker := NewChecker(repo)

	free, err := checker.IsAvailable(context.Background(), "lst-1", stay(t, 10, 13), "bk-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !free {
		t.Fatal("a booking re-checking its own slot should not conflict with itself")
	}
}

func TestOccupiedDates(t *testing.T) {
	repo := memory.NewBookingRepository()
	seedBooking(t, repo, "bk-1", stay(t, 10, 12), true)
	seedBooking(t, repo, "bk-2", stay(t, 14, 15), false)
	checker := NewChecker(repo)

	dates, err := checker.OccupiedDates(context.Background(), "lst-1", stay(t, 8, 20))
	if err != nil {
		t.Fatalf("occupied: %v", err)
	}
	want := []time.Time{day(10), day(11), day(14)}
	if len(dates) != len(want) {
		t.Fatalf("got %d dates: %v", len(dates), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("date %d: got %s, want %s", i, dates[i], want[i])
		}
	}
}

func TestOccupiedDatesClipsToWindow(t *testing.T) {
	repo := memory.NewBookingRepository()
	seedBooking(t, repo, "bk-1", stay(t, 10, 14), true)
	checker := NewChecker(repo)

	dates, err := checker.OccupiedDates(context.Background(), "lst-1", stay(t, 12, 20))
	if err != nil {
		t.Fatalf("occupied: %v", err)
	}
	if len(dates) != 2 || !dates[0].Equal(day(12)) || !dates[1].Equal(day(13)) {
		t.Fatalf("got %v", dates)
	}
}
