package booking

import (
	"context"
	"testing"

	"stayloop/internal/app/fault"
	domainbooking "stayloop/internal/domain/booking"
)

func requestPending(t *testing.T, fx fixture, id, guestID string, checkIn, checkOut int) {
	t.Helper()
	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: id,
		ListingID: "lst-1",
		GuestID:   guestID,
		CheckIn:   futureDay(checkIn),
		CheckOut:  futureDay(checkOut),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	})
	if err != nil {
		t.Fatalf("request %s: %v", id, err)
	}
}

func TestConfirmBookingCapturesPayment(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &ConfirmBookingHandler{}
	result, err := handler.Handle(unitContext(t, fx), ConfirmBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-1",
		Message:   "see you soon",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if result.Status != string(domainbooking.StateConfirmed) {
		t.Fatalf("status: got %q", result.Status)
	}
	if result.PaymentStatus != string(domainbooking.PaymentPaid) {
		t.Fatalf("payment: got %q", result.PaymentStatus)
	}
}

func TestConfirmBookingLosesRaceToConfirmedDates(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &ConfirmBookingHandler{}
	if _, err := handler.Handle(unitContext(t, fx), ConfirmBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-1",
	}); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	requestPendingUnavailable(t, fx, "bk-2", "guest-2", 15, 18)
	_, err := handler.Handle(unitContext(t, fx), ConfirmBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-2",
	})
	requireKind(t, err, fault.KindConflict)
}

// requestPendingUnavailable seeds a pending booking directly, bypassing the
// availability gate, to model two requests racing for the same dates.
func requestPendingUnavailable(t *testing.T, fx fixture, id, guestID string, checkIn, checkOut int) {
	t.Helper()
	b, err := fx.bookings.ByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("template booking: %v", err)
	}
	stay := b.Range
	stay.CheckIn = futureDay(checkIn)
	stay.CheckOut = futureDay(checkOut)
	clone, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: b.ListingID,
		GuestID:   guestID,
		HostID:    b.HostID,
		Range:     stay,
		Guests:    domainbooking.GuestCounts{Adults: 1},
		Price:     b.Price,
		CreatedAt: b.CreatedAt,
	})
	if err != nil {
		t.Fatalf("clone booking: %v", err)
	}
	clone.ClearEvents()
	if err := fx.bookings.Save(context.Background(), clone); err != nil {
		t.Fatalf("save clone: %v", err)
	}
}

func TestConfirmBookingWrongHost(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &ConfirmBookingHandler{}
	_, err := handler.Handle(unitContext(t, fx), ConfirmBookingCommand{
		HostID:    "host-2",
		BookingID: "bk-1",
	})
	requireKind(t, err, fault.KindUnauthorized)
}

func TestConfirmBookingOnlyFromPending(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &ConfirmBookingHandler{}
	ctx := unitContext(t, fx)
	if _, err := handler.Handle(ctx, ConfirmBookingCommand{HostID: "host-1", BookingID: "bk-1"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	_, err := handler.Handle(ctx, ConfirmBookingCommand{HostID: "host-1", BookingID: "bk-1"})
	requireKind(t, err, fault.KindConflict)
}

func TestRejectBookingDefaultsReason(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &RejectBookingHandler{}
	result, err := handler.Handle(unitContext(t, fx), RejectBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-1",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Status != string(domainbooking.StateRejected) {
		t.Fatalf("status: got %q", result.Status)
	}

	stored, _ := fx.bookings.ByID(context.Background(), "bk-1")
	if stored.HostResponse == nil || stored.HostResponse.Message != "declined by host" {
		t.Fatalf("reason not defaulted: %+v", stored.HostResponse)
	}
	if stored.Payment != domainbooking.PaymentPending {
		t.Fatalf("payment: got %s", stored.Payment)
	}
}

func TestRejectedBookingFreesDates(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	if _, err := (&RejectBookingHandler{}).Handle(unitContext(t, fx), RejectBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-1",
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	requestPending(t, fx, "bk-2", "guest-2", 14, 17)
}

func TestCancelBookingMissing(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)

	handler := &CancelBookingHandler{Policy: domainbooking.DefaultRefundPolicy()}
	_, err := handler.Handle(unitContext(t, fx), CancelBookingCommand{
		ActorID:   "guest-1",
		BookingID: "missing",
	})
	requireKind(t, err, fault.KindNotFound)
}

func TestCancelConfirmedBookingRefundsInFull(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 21)

	if _, err := (&ConfirmBookingHandler{}).Handle(unitContext(t, fx), ConfirmBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-1",
	}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	handler := &CancelBookingHandler{Policy: domainbooking.DefaultRefundPolicy()}
	result, err := handler.Handle(unitContext(t, fx), CancelBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-1",
		Reason:    "change of plans",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Status != string(domainbooking.StateCancelled) {
		t.Fatalf("status: got %q", result.Status)
	}
	if result.RefundAmount != 31500 || result.Currency != "EUR" {
		t.Fatalf("refund: got %d %s", result.RefundAmount, result.Currency)
	}
	if result.PaymentStatus != string(domainbooking.PaymentRefunded) {
		t.Fatalf("payment: got %q", result.PaymentStatus)
	}
}

func TestCancelPendingBookingRefundsNothing(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 21)

	handler := &CancelBookingHandler{Policy: domainbooking.DefaultRefundPolicy()}
	result, err := handler.Handle(unitContext(t, fx), CancelBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-1",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.RefundAmount != 0 {
		t.Fatalf("unpaid cancel refunded %d", result.RefundAmount)
	}
	if result.PaymentStatus != string(domainbooking.PaymentPending) {
		t.Fatalf("payment: got %q", result.PaymentStatus)
	}
}

func TestCancelAfterRejectionConflicts(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	if _, err := (&RejectBookingHandler{}).Handle(unitContext(t, fx), RejectBookingCommand{
		HostID:    "host-1",
		BookingID: "bk-1",
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	handler := &CancelBookingHandler{Policy: domainbooking.DefaultRefundPolicy()}
	_, err := handler.Handle(unitContext(t, fx), CancelBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-1",
	})
	requireKind(t, err, fault.KindConflict)
}

func TestRejectBookingTwiceConflicts(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &RejectBookingHandler{}
	cmd := RejectBookingCommand{HostID: "host-1", BookingID: "bk-1"}
	if _, err := handler.Handle(unitContext(t, fx), cmd); err != nil {
		t.Fatalf("first reject: %v", err)
	}
	_, err := handler.Handle(unitContext(t, fx), cmd)
	requireKind(t, err, fault.KindConflict)
}

func TestCancelByOutsiderFails(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	requestPending(t, fx, "bk-1", "guest-1", 14, 17)

	handler := &CancelBookingHandler{Policy: domainbooking.DefaultRefundPolicy()}
	_, err := handler.Handle(unitContext(t, fx), CancelBookingCommand{
		ActorID:   "guest-2",
		BookingID: "bk-1",
	})
	requireKind(t, err, fault.KindUnauthorized)
}
