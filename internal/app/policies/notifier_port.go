package policies

import "context"

// Notification templates understood by the delivery sinks.
const (
	TemplateNewBooking       = "new_booking"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingRejected  = "booking_rejected"
	TemplateBookingCancelled = "booking_cancelled"
	TemplateBookingCompleted = "booking_completed"
)

// Notifier delivers a templated message to one user. Delivery is best
// effort: callers log failures and move on, never fail the command.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}
