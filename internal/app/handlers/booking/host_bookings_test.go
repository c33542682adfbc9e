package booking

import (
	"context"
	"testing"

	"stayloop/internal/app/dto"
	domainbooking "stayloop/internal/domain/booking"
)

func statFor(t *testing.T, stats dto.HostBookingStats, status domainbooking.BookingState) dto.BookingStatusStat {
	t.Helper()
	for _, item := range stats.Items {
		if item.Status == string(status) {
			return item
		}
	}
	t.Fatalf("no %s bucket in %+v", status, stats.Items)
	return dto.BookingStatusStat{}
}

func TestHostBookingStatsRevenuePerStatus(t *testing.T) {
	fx := newFixture()

	// Confirmed ongoing stay, 3 nights at 4500.
	seedConfirmedStay(t, fx, "bk-confirmed", futureDay(3), futureDay(6))

	// Completed stay: same revenue after the sweep would close it.
	seedConfirmedStay(t, fx, "bk-completed", futureDay(-10), futureDay(-7))
	if _, err := (&CompleteBookingHandler{}).Handle(unitContext(t, fx), CompleteBookingCommand{
		ActorID:   "guest-1",
		BookingID: "bk-completed",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	handler := &HostBookingStatsHandler{UoWFactory: fx.factory}
	stats, err := handler.Handle(context.Background(), HostBookingStatsQuery{HostID: "host-1"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	confirmed := statFor(t, stats, domainbooking.StateConfirmed)
	if confirmed.Count != 1 || confirmed.Revenue.Amount != 13500 {
		t.Fatalf("confirmed bucket: %+v", confirmed)
	}
	completed := statFor(t, stats, domainbooking.StateCompleted)
	if completed.Count != 1 || completed.Revenue.Amount != 13500 {
		t.Fatalf("completed bucket: %+v", completed)
	}
}

func TestHostBookingStatsCancelledEarnsNothing(t *testing.T) {
	fx := newFixture()

	// Paid booking cancelled during the stay: zero refund, payment stays
	// captured, but the cancelled bucket must not accrue revenue.
	seedConfirmedStay(t, fx, "bk-1", futureDay(-1), futureDay(2))
	result, err := (&CancelBookingHandler{Policy: domainbooking.DefaultRefundPolicy()}).Handle(
		unitContext(t, fx),
		CancelBookingCommand{ActorID: "guest-1", BookingID: "bk-1", Reason: "cut short"},
	)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.RefundAmount != 0 || result.PaymentStatus != string(domainbooking.PaymentPaid) {
		t.Fatalf("precondition: refund=%d payment=%s", result.RefundAmount, result.PaymentStatus)
	}

	handler := &HostBookingStatsHandler{UoWFactory: fx.factory}
	stats, err := handler.Handle(context.Background(), HostBookingStatsQuery{HostID: "host-1"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	cancelled := statFor(t, stats, domainbooking.StateCancelled)
	if cancelled.Count != 1 {
		t.Fatalf("cancelled count: %+v", cancelled)
	}
	if cancelled.Revenue.Amount != 0 {
		t.Fatalf("cancelled bucket accrued revenue: %+v", cancelled)
	}
}
