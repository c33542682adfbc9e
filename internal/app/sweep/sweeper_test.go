package sweep

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

var now = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

func newFactory() (memory.Factory, *memory.BookingRepository) {
	bookings := memory.NewBookingRepository()
	return memory.Factory{
		ListingsRepo: memory.NewListingRepository(),
		BookingRepo:  bookings,
		ReviewsRepo:  memory.NewReviewsRepository(),
		UsersRepo:    memory.NewUserRepository(),
	}, bookings
}

func seed(t *testing.T, repo *memory.BookingRepository, id, guestID string, checkIn, checkOut time.Time, confirm bool) {
	t.Helper()
	stay, err := daterange.New(checkIn, checkOut)
	if err != nil {
		t.Fatalf("stay: %v", err)
	}
	snap, err := domainpricing.Calculator{}.Quote(money.Must(4500, "EUR"), money.Zero("EUR"), stay)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: "lst-1",
		GuestID:   guestID,
		HostID:    "host-1",
		Range:     stay,
		Guests:    domainbooking.GuestCounts{Adults: 1},
		Price:     snap,
		CreatedAt: checkIn.AddDate(0, 0, -7),
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if confirm {
		if err := b.Confirm("", checkIn.AddDate(0, 0, -5)); err != nil {
			t.Fatalf("confirm: %v", err)
		}
	}
	b.ClearEvents()
	if err := repo.Save(context.Background(), b); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestSweepGuestClosesEndedStays(t *testing.T) {
	factory, bookings := newFactory()
	seed(t, bookings, "bk-ended", "guest-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	seed(t, bookings, "bk-active", "guest-1", now.AddDate(0, 0, -2), now.AddDate(0, 0, 2), true)
	seed(t, bookings, "bk-pending", "guest-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), false)

	sweeper := New(factory, nil, nil)
	closed, err := sweeper.SweepGuest(context.Background(), "guest-1", now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed: got %d", closed)
	}

	ended, _ := bookings.ByID(context.Background(), "bk-ended")
	if ended.State != domainbooking.StateCompleted {
		t.Fatalf("ended stay: got %s", ended.State)
	}
	active, _ := bookings.ByID(context.Background(), "bk-active")
	if active.State != domainbooking.StateConfirmed {
		t.Fatalf("active stay must survive: got %s", active.State)
	}
	pending, _ := bookings.ByID(context.Background(), "bk-pending")
	if pending.State != domainbooking.StatePending {
		t.Fatalf("pending must survive: got %s", pending.State)
	}
}

func TestSweepGuestScopesToGuest(t *testing.T) {
	factory, bookings := newFactory()
	seed(t, bookings, "bk-1", "guest-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	seed(t, bookings, "bk-2", "guest-2", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)

	sweeper := New(factory, nil, nil)
	closed, err := sweeper.SweepGuest(context.Background(), "guest-1", now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed: got %d", closed)
	}
	other, _ := bookings.ByID(context.Background(), "bk-2")
	if other.State != domainbooking.StateConfirmed {
		t.Fatalf("other guest's booking touched: %s", other.State)
	}
}

func TestSweepAllGuests(t *testing.T) {
	factory, bookings := newFactory()
	seed(t, bookings, "bk-1", "guest-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	seed(t, bookings, "bk-2", "guest-2", now.AddDate(0, 0, -12), now.AddDate(0, 0, -6), true)

	sweeper := New(factory, nil, nil)
	closed, err := sweeper.SweepGuest(context.Background(), "", now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 2 {
		t.Fatalf("closed: got %d", closed)
	}
	for _, id := range []string{"bk-1", "bk-2"} {
		b, _ := bookings.ByID(context.Background(), domainbooking.BookingID(id))
		if b.State != domainbooking.StateCompleted {
			t.Fatalf("%s: got %s", id, b.State)
		}
	}
}

func TestSweepGuestNothingToDo(t *testing.T) {
	factory, _ := newFactory()
	sweeper := New(factory, nil, nil)
	closed, err := sweeper.SweepGuest(context.Background(), "guest-1", now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 0 {
		t.Fatalf("closed: got %d", closed)
	}
}

func TestSweepCutoffIsInclusiveOfCheckout(t *testing.T) {
	factory, bookings := newFactory()
	checkout := now
	seed(t, bookings, "bk-1", "guest-1", checkout.AddDate(0, 0, -3), checkout, true)

	sweeper := New(factory, nil, nil)
	closed, err := sweeper.SweepGuest(context.Background(), "guest-1", now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 1 {
		t.Fatalf("checkout at the cutoff should close, got %d", closed)
	}
}
