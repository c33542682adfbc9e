package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayloop/internal/domain/booking"
	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/events"
)

var (
	ErrNotFound        = errors.New("reviews: not found")
	ErrInvalidRating   = errors.New("reviews: rating must be between 1 and 5")
	ErrCommentRequired = errors.New("reviews: comment is required")
	ErrAlreadyExists   = errors.New("reviews: review already exists for booking and role")
)

type ReviewID string

// CategoryRatings are the optional per-aspect sub-ratings a guest leaves on
// a listing. Zero means not rated.
type CategoryRatings struct {
	Cleanliness   int `json:"cleanliness,omitempty" bson:"cleanliness,omitempty"`
	Accuracy      int `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	CheckIn       int `json:"check_in,omitempty" bson:"check_in,omitempty"`
	Communication int `json:"communication,omitempty" bson:"communication,omitempty"`
	Location      int `json:"location,omitempty" bson:"location,omitempty"`
	Value         int `json:"value,omitempty" bson:"value,omitempty"`
}

func (c CategoryRatings) validate() error {
	for _, v := range [...]int{c.Cleanliness, c.Accuracy, c.CheckIn, c.Communication, c.Location, c.Value} {
		if v != 0 && (v < 1 || v > 5) {
			return ErrInvalidRating
		}
	}
	return nil
}

// Response is the reviewee's public reply.
type Response struct {
	Comment   string
	CreatedAt time.Time
}

type Review struct {
	ID         ReviewID
	BookingID  booking.BookingID
	ListingID  listings.ListingID
	ReviewerID string
	RevieweeID string
	Role       booking.ReviewRole
	Rating     int
	Categories CategoryRatings
	Comment    string
	Response   *Response
	IsPublic   bool
	CreatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	// ByBookingRole returns the single review for a (booking, role) pair.
	ByBookingRole(ctx context.Context, bookingID booking.BookingID, role booking.ReviewRole) (*Review, error)
	// ListPublicByListing returns public guest reviews for a listing, newest
	// first. limit <= 0 means no paging.
	ListPublicByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*Review, int, error)
	ListByReviewee(ctx context.Context, revieweeID string, limit, offset int) ([]*Review, int, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id ReviewID) error
}

type SubmitParams struct {
	ID         ReviewID
	BookingID  booking.BookingID
	ListingID  listings.ListingID
	ReviewerID string
	RevieweeID string
	Role       booking.ReviewRole
	Rating     int
	Categories CategoryRatings
	Comment    string
	CreatedAt  time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := params.Categories.validate(); err != nil {
		return nil, err
	}
	comment := strings.TrimSpace(params.Comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	review := &Review{
		ID:         params.ID,
		BookingID:  params.BookingID,
		ListingID:  params.ListingID,
		ReviewerID: params.ReviewerID,
		RevieweeID: params.RevieweeID,
		Role:       params.Role,
		Rating:     params.Rating,
		Categories: params.Categories,
		Comment:    comment,
		IsPublic:   true,
		CreatedAt:  params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, BookingID: review.BookingID, ListingID: review.ListingID, Role: review.Role, Rating: review.Rating, At: review.CreatedAt})
	return review, nil
}

// Respond records the reviewee's reply; one reply, overwritten on repeat.
func (r *Review) Respond(comment string, now time.Time) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ErrCommentRequired
	}
	r.Response = &Response{Comment: comment, CreatedAt: now.UTC()}
	return nil
}

// Hide flips the review private without removing it.
func (r *Review) Hide() {
	r.IsPublic = false
}

type ReviewSubmitted struct {
	ReviewID  ReviewID
	BookingID booking.BookingID
	ListingID listings.ListingID
	Role      booking.ReviewRole
	Rating    int
	At        time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }
