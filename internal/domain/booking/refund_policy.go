package booking

import (
	"time"

	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

// RefundPolicy implements the flexible cancellation tiers: full refund a
// week or more before check-in, half refund down to the day before, nothing
// afterwards. Refunds only apply once a payment was captured.
type RefundPolicy struct {
	FullRefundDays int
	HalfRefundDays int
}

// DefaultRefundPolicy mirrors the marketplace default (7 days / 1 day).
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{FullRefundDays: 7, HalfRefundDays: 1}
}

// RefundFor computes the refund owed when the booking is cancelled at the
// given instant. Pending bookings never captured a payment, so nothing is
// refunded regardless of timing.
func (p RefundPolicy) RefundFor(b *Booking, now time.Time) money.Money {
	zero := money.Zero(b.Price.Total.Currency)
	if b.Payment != PaymentPaid {
		return zero
	}
	days := daterange.DaysUntilCheckIn(b.Range.CheckIn, now)
	switch {
	case days >= p.FullRefundDays:
		return b.Price.Total
	case days >= p.HalfRefundDays:
		return b.Price.Total.Percent(50)
	default:
		return zero
	}
}
