package booking

import (
	"context"
	"testing"
	"time"

	"stayloop/internal/app/fault"
	domainbooking "stayloop/internal/domain/booking"
	domainpricing "stayloop/internal/domain/pricing"
	domainrange "stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

// seedConfirmedStay writes a confirmed booking straight into the repository
// so tests can place stays in the past, which the request path forbids.
func seedConfirmedStay(t *testing.T, fx fixture, id string, checkIn, checkOut time.Time) {
	t.Helper()
	stay, err := domainrange.New(checkIn, checkOut)
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
		GuestID:   "guest-1",
		HostID:    "host-1",
		Range:     stay,
		Guests:    domainbooking.GuestCounts{Adults: 1},
		Price:     snap,
		CreatedAt: checkIn.AddDate(0, 0, -7),
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if err := b.Confirm("", checkIn.AddDate(0, 0, -5)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	b.ClearEvents()
	if err := fx.bookings.Save(context.Background(), b); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestCompleteBookingAfterCheckout(t *testing.T) {
	fx := newFixture()
	seedConfirmedStay(t, fx, "bk-1", futureDay(-10), futureDay(-7))

	handler := &CompleteBookingHandler{}
	result, err := handler.Handle(unitContext(t, fx), CompleteBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-1",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Status != string(domainbooking.StateCompleted) {
		t.Fatalf("status: got %q", result.Status)
	}
}

func TestCompleteBookingBeforeCheckout(t *testing.T) {
	fx := newFixture()
	seedConfirmedStay(t, fx, "bk-1", futureDay(7), futureDay(10))

	handler := &CompleteBookingHandler{}
	_, err := handler.Handle(unitContext(t, fx), CompleteBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-1",
	})
	requireKind(t, err, fault.KindConflict)
}

func TestCompleteBookingTwice(t *testing.T) {
	fx := newFixture()
	seedConfirmedStay(t, fx, "bk-1", futureDay(-10), futureDay(-7))

	handler := &CompleteBookingHandler{}
	ctx := unitContext(t, fx)
	cmd := CompleteBookingCommand{ActorID: "guest-1", BookingID: "bk-1"}
	if _, err := handler.Handle(ctx, cmd); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	_, err := handler.Handle(ctx, cmd)
	requireKind(t, err, fault.KindConflict)

	b, _ := fx.bookings.ByID(context.Background(), "bk-1")
	if b.State != domainbooking.StateCompleted {
		t.Fatalf("state after double complete: %s", b.State)
	}
}

func TestCompleteBookingByOutsider(t *testing.T) {
	fx := newFixture()
	seedConfirmedStay(t, fx, "bk-1", futureDay(-10), futureDay(-7))

	handler := &CompleteBookingHandler{}
	_, err := handler.Handle(unitContext(t, fx), CompleteBookingCommand{
		ActorID:   "someone-else",
		BookingID: "bk-1",
	})
	requireKind(t, err, fault.KindUnauthorized)
}

func TestCompleteBookingRequiresConfirmed(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &CompleteBookingHandler{}
	_, err := handler.Handle(unitContext(t, fx), CompleteBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-1",
	})
	requireKind(t, err, fault.KindConflict)
}
