package booking

import (
	"errors"
	"testing"
	"time"

	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

var checkIn = time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)

func testBooking(t *testing.T) *Booking {
	t.Helper()
	stay, err := daterange.New(checkIn, checkIn.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("stay: %v", err)
	}
	snap, err := pricing.Calculator{}.Quote(money.Must(4500, "EUR"), money.Zero("EUR"), stay)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	b, err := NewBooking(CreateParams{
		ID:        "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		HostID:    "host-1",
		Range:     stay,
		Guests:    GuestCounts{Adults: 2},
		Price:     snap,
		CreatedAt: checkIn.AddDate(0, 0, -30),
	})
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	return b
}

func TestNewBookingStartsPending(t *testing.T) {
	b := testBooking(t)
	if b.State != StatePending || b.Payment != PaymentPending {
		t.Fatalf("got state=%s payment=%s", b.State, b.Payment)
	}
	if b.Price.Total.Amount != 31500 {
		t.Fatalf("total: got %d", b.Price.Total.Amount)
	}
	if len(b.PendingEvents()) != 1 {
		t.Fatalf("expected a requested event, got %d", len(b.PendingEvents()))
	}
}

func TestNewBookingRequiresAdult(t *testing.T) {
	stay, _ := daterange.New(checkIn, checkIn.AddDate(0, 0, 2))
	_, err := NewBooking(CreateParams{
		ID:        "bk-2",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		HostID:    "host-1",
		Range:     stay,
		Guests:    GuestCounts{Children: 2},
		CreatedAt: checkIn.AddDate(0, 0, -1),
	})
	if !errors.Is(err, ErrGuestRequired) {
		t.Fatalf("expected ErrGuestRequired, got %v", err)
	}
}

func TestConfirmCapturesPayment(t *testing.T) {
	b := testBooking(t)
	now := checkIn.AddDate(0, 0, -20)
	if err := b.Confirm("welcome", now); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.State != StateConfirmed || b.Payment != PaymentPaid {
		t.Fatalf("got state=%s payment=%s", b.State, b.Payment)
	}
	if b.HostResponse == nil || b.HostResponse.Message != "welcome" {
		t.Fatalf("host response not recorded: %+v", b.HostResponse)
	}
	if err := b.Confirm("again", now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double confirm: expected ErrInvalidState, got %v", err)
	}
}

func TestRejectOnlyFromPending(t *testing.T) {
	b := testBooking(t)
	now := checkIn.AddDate(0, 0, -20)
	if err := b.Reject("dates blocked", now); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if b.State != StateRejected {
		t.Fatalf("got state=%s", b.State)
	}
	if b.Payment != PaymentPending {
		t.Fatalf("rejecting must not touch payment, got %s", b.Payment)
	}
	if err := b.Reject("again", now); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCompleteRequiresFinishedStay(t *testing.T) {
	b := testBooking(t)
	if err := b.Confirm("", checkIn.AddDate(0, 0, -20)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := b.Complete(checkIn.AddDate(0, 0, 3)); !errors.Is(err, ErrStayNotFinished) {
		t.Fatalf("mid-stay: expected ErrStayNotFinished, got %v", err)
	}
	if err := b.Complete(b.Range.CheckOut); err != nil {
		t.Fatalf("complete at check-out: %v", err)
	}
	if b.State != StateCompleted {
		t.Fatalf("got state=%s", b.State)
	}
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	b := testBooking(t)
	if err := b.Complete(b.Range.CheckOut); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pending booking: expected ErrInvalidState, got %v", err)
	}
}

func TestCancelRecordsRefund(t *testing.T) {
	b := testBooking(t)
	if err := b.Confirm("", checkIn.AddDate(0, 0, -20)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	refund := money.Must(31500, "EUR")
	if err := b.Cancel("guest-1", "plans changed", refund, checkIn.AddDate(0, 0, -10)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.State != StateCancelled || b.Payment != PaymentRefunded {
		t.Fatalf("got state=%s payment=%s", b.State, b.Payment)
	}
	if b.Cancellation == nil || b.Cancellation.RefundAmount.Amount != 31500 {
		t.Fatalf("cancellation not recorded: %+v", b.Cancellation)
	}
}

func TestCancelWithoutRefundKeepsPaymentState(t *testing.T) {
	b := testBooking(t)
	if err := b.Cancel("guest-1", "", money.Zero("EUR"), checkIn.AddDate(0, 0, -10)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if b.Payment != PaymentPending {
		t.Fatalf("unpaid cancel must not flip payment, got %s", b.Payment)
	}
}

func TestCancelFromTerminalStateFails(t *testing.T) {
	b := testBooking(t)
	if err := b.Reject("no", checkIn.AddDate(0, 0, -20)); err != nil {
		t.Fatalf("reject: %v", err)
	}
	err := b.Cancel("guest-1", "", money.Zero("EUR"), checkIn.AddDate(0, 0, -10))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRefundPolicyTiers(t *testing.T) {
	policy := DefaultRefundPolicy()

	cases := []struct {
		name   string
		now    time.Time
		refund int64
	}{
		{"ten days before", checkIn.AddDate(0, 0, -10), 31500},
		{"exactly seven days", checkIn.AddDate(0, 0, -7), 31500},
		{"three days before", checkIn.AddDate(0, 0, -3), 15750},
		{"one day before", checkIn.AddDate(0, 0, -1), 15750},
		{"twelve hours before", checkIn.Add(-12 * time.Hour), 15750},
		{"at check-in", checkIn, 0},
		{"after check-in", checkIn.AddDate(0, 0, 1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := testBooking(t)
			if err := b.Confirm("", checkIn.AddDate(0, 0, -30)); err != nil {
				t.Fatalf("confirm: %v", err)
			}
			got := policy.RefundFor(b, tc.now)
			if got.Amount != tc.refund {
				t.Fatalf("refund: got %d, want %d", got.Amount, tc.refund)
			}
			if got.Currency != "EUR" {
				t.Fatalf("refund currency: got %q", got.Currency)
			}
		})
	}
}

func TestRefundPolicyPendingBookingGetsNothing(t *testing.T) {
	b := testBooking(t)
	got := DefaultRefundPolicy().RefundFor(b, checkIn.AddDate(0, 0, -30))
	if got.Amount != 0 {
		t.Fatalf("unpaid booking: got %d", got.Amount)
	}
}

func TestAttachReviewOncePerRole(t *testing.T) {
	b := testBooking(t)
	now := b.Range.CheckOut.AddDate(0, 0, 1)
	if err := b.AttachReview(ReviewByGuest, "rv-1", now); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := b.AttachReview(ReviewByGuest, "rv-2", now); !errors.Is(err, ErrReviewAttached) {
		t.Fatalf("second guest review: expected ErrReviewAttached, got %v", err)
	}
	if err := b.AttachReview(ReviewByHost, "rv-3", now); err != nil {
		t.Fatalf("host slot should be free: %v", err)
	}
	b.DetachReview(ReviewByGuest, now)
	if b.Reviews.Guest != "" {
		t.Fatalf("detach left %q", b.Reviews.Guest)
	}
}
