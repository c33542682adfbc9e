package booking

import (
	"context"
	"errors"
	"time"

	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/events"
	"stayloop/internal/domain/shared/money"
)

var (
	ErrNotFound        = errors.New("booking: not found")
	ErrInvalidState    = errors.New("booking: invalid state transition")
	ErrStayNotFinished = errors.New("booking: stay has not ended yet")
	ErrGuestRequired   = errors.New("booking: at least one adult guest is required")
	ErrNegativeGuests  = errors.New("booking: guest counts cannot be negative")
	ErrReviewAttached  = errors.New("booking: review already attached for this role")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "pending"
	StateConfirmed BookingState = "confirmed"
	StateRejected  BookingState = "rejected"
	StateCancelled BookingState = "cancelled"
	StateCompleted BookingState = "completed"
)

// Terminal reports whether no further transition is defined from the state.
func (s BookingState) Terminal() bool {
	switch s {
	case StateRejected, StateCancelled, StateCompleted:
		return true
	}
	return false
}

// Blocking reports whether bookings in this state occupy their date range.
func (s BookingState) Blocking() bool {
	return s == StatePending || s == StateConfirmed
}

type PaymentState string

const (
	PaymentPending  PaymentState = "pending"
	PaymentPaid     PaymentState = "paid"
	PaymentRefunded PaymentState = "refunded"
	PaymentFailed   PaymentState = "failed"
)

// GuestCounts breaks down the party by age and pets.
type GuestCounts struct {
	Adults   int `json:"adults" bson:"adults"`
	Children int `json:"children" bson:"children"`
	Infants  int `json:"infants" bson:"infants"`
	Pets     int `json:"pets" bson:"pets"`
}

// Total counts travellers against listing capacity; pets are checked
// separately against house rules.
func (g GuestCounts) Total() int {
	return g.Adults + g.Children + g.Infants
}

func (g GuestCounts) validate() error {
	if g.Adults < 1 {
		return ErrGuestRequired
	}
	if g.Children < 0 || g.Infants < 0 || g.Pets < 0 {
		return ErrNegativeGuests
	}
	return nil
}

// PaymentDetails tracks the recorded (not processed) payment facts.
type PaymentDetails struct {
	TransactionID string
	PaidAt        time.Time
	RefundAmount  money.Money
	RefundedAt    time.Time
}

// HostResponse is the host's confirm/reject message.
type HostResponse struct {
	Message     string
	RespondedAt time.Time
}

// Cancellation records who cancelled, when, why and what was refunded.
type Cancellation struct {
	CancelledBy  string
	CancelledAt  time.Time
	Reason       string
	RefundAmount money.Money
}

// ReviewRole distinguishes the two review slots on a booking.
type ReviewRole string

const (
	ReviewByGuest ReviewRole = "guest"
	ReviewByHost  ReviewRole = "host"
)

// ReviewRefs back-references at most one review per role.
type ReviewRefs struct {
	Guest string
	Host  string
}

type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	HostID          string
	Range           daterange.DateRange
	Guests          GuestCounts
	Price           pricing.Snapshot
	State           BookingState
	Payment         PaymentState
	PaymentDetails  PaymentDetails
	SpecialRequests string
	GuestMessage    string
	HostResponse    *HostResponse
	Cancellation    *Cancellation
	Reviews         ReviewRefs
	ChatThreadID    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

// StatusStat is one row of the host booking statistics.
type StatusStat struct {
	Status  BookingState
	Count   int
	Revenue money.Money
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID string) ([]*Booking, error)
	// FindConflicting returns bookings on the listing whose blocking state
	// range overlaps the candidate range, optionally skipping one booking.
	FindConflicting(ctx context.Context, listingID listings.ListingID, stay daterange.DateRange, exclude BookingID) ([]*Booking, error)
	// ListConfirmedEndedBefore returns confirmed bookings whose check-out
	// precedes the cutoff; guestID narrows the sweep, empty means all guests.
	ListConfirmedEndedBefore(ctx context.Context, guestID string, cutoff time.Time) ([]*Booking, error)
	StatsByHost(ctx context.Context, hostID string) ([]StatusStat, error)
}

type CreateParams struct {
	ID              BookingID
	ListingID       listings.ListingID
	GuestID         string
	HostID          string
	Range           daterange.DateRange
	Guests          GuestCounts
	Price           pricing.Snapshot
	SpecialRequests string
	GuestMessage    string
	CreatedAt       time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.GuestID == "" {
		return nil, errors.New("booking: guest id required")
	}
	if params.HostID == "" {
		return nil, errors.New("booking: host id required")
	}
	if err := params.Guests.validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		ListingID:       params.ListingID,
		GuestID:         params.GuestID,
		HostID:          params.HostID,
		Range:           params.Range,
		Guests:          params.Guests,
		Price:           params.Price,
		State:           StatePending,
		Payment:         PaymentPending,
		SpecialRequests: params.SpecialRequests,
		GuestMessage:    params.GuestMessage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		ListingID: b.ListingID,
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Range:     b.Range,
		Guests:    b.Guests.Total(),
		Total:     b.Price.Total,
		At:        now,
	})
	return b, nil
}

// Confirm moves pending to confirmed and records the payment as captured.
// Availability must be re-checked by the caller before invoking it.
func (b *Booking) Confirm(hostMessage string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.Payment = PaymentPaid
	b.PaymentDetails.PaidAt = now.UTC()
	if hostMessage != "" {
		b.HostResponse = &HostResponse{Message: hostMessage, RespondedAt: now.UTC()}
	}
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

// Reject moves pending to rejected with the host's reason.
func (b *Booking) Reject(reason string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateRejected
	b.HostResponse = &HostResponse{Message: reason, RespondedAt: now.UTC()}
	b.UpdatedAt = now.UTC()
	b.Record(BookingRejected{BookingID: b.ID, GuestID: b.GuestID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel moves pending or confirmed to cancelled, recording the already
// computed refund. A positive refund flips the payment to refunded.
func (b *Booking) Cancel(actorID, reason string, refund money.Money, now time.Time) error {
	if b.State != StatePending && b.State != StateConfirmed {
		return ErrInvalidState
	}
	ts := now.UTC()
	b.State = StateCancelled
	b.Cancellation = &Cancellation{
		CancelledBy:  actorID,
		CancelledAt:  ts,
		Reason:       reason,
		RefundAmount: refund,
	}
	if refund.Amount > 0 {
		b.Payment = PaymentRefunded
		b.PaymentDetails.RefundAmount = refund
		b.PaymentDetails.RefundedAt = ts
	}
	b.UpdatedAt = ts
	b.Record(BookingCancelled{BookingID: b.ID, CancelledBy: actorID, Refund: refund, Reason: reason, At: ts})
	return nil
}

// Complete moves confirmed to completed once the stay has ended.
func (b *Booking) Complete(now time.Time) error {
	if b.State != StateConfirmed {
		return ErrInvalidState
	}
	if now.Before(b.Range.CheckOut) {
		return ErrStayNotFinished
	}
	b.State = StateCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, GuestID: b.GuestID, HostID: b.HostID, At: b.UpdatedAt})
	return nil
}

// AttachReview links a review id into the role's slot; each slot holds at
// most one review.
func (b *Booking) AttachReview(role ReviewRole, reviewID string, now time.Time) error {
	switch role {
	case ReviewByGuest:
		if b.Reviews.Guest != "" {
			return ErrReviewAttached
		}
		b.Reviews.Guest = reviewID
	case ReviewByHost:
		if b.Reviews.Host != "" {
			return ErrReviewAttached
		}
		b.Reviews.Host = reviewID
	default:
		return errors.New("booking: unknown review role")
	}
	b.UpdatedAt = now.UTC()
	return nil
}

// DetachReview clears the role's review slot after a review delete.
func (b *Booking) DetachReview(role ReviewRole, now time.Time) {
	switch role {
	case ReviewByGuest:
		b.Reviews.Guest = ""
	case ReviewByHost:
		b.Reviews.Host = ""
	}
	b.UpdatedAt = now.UTC()
}

// SetChatThread stores the external chat correlation id.
func (b *Booking) SetChatThread(threadID string, now time.Time) {
	b.ChatThreadID = threadID
	b.UpdatedAt = now.UTC()
}

// IsParticipant reports whether the user is the booking's guest or host.
func (b *Booking) IsParticipant(userID string) bool {
	return b.GuestID == userID || b.HostID == userID
}

// CounterpartOf returns the other party of the booking relative to actorID.
func (b *Booking) CounterpartOf(actorID string) string {
	if actorID == b.GuestID {
		return b.HostID
	}
	return b.GuestID
}
