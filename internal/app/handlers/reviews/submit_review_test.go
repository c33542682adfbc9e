package reviews

import (
	"context"
	"testing"
	"time"

	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainpricing "stayloop/internal/domain/pricing"
	domainrange "stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
	"stayloop/internal/infra/storage/memory"
)

var now = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	factory  memory.Factory
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	reviews  *memory.ReviewsRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	reviews := memory.NewReviewsRepository()
	fx := fixture{
		factory: memory.Factory{
			ListingsRepo: listings,
			BookingRepo:  bookings,
			ReviewsRepo:  reviews,
			UsersRepo:    memory.NewUserRepository(),
		},
		listings: listings,
		bookings: bookings,
		reviews:  reviews,
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Garden studio",
		GuestsLimit: 2,
		MaxStay:     30,
		Pricing:     domainlistings.Pricing{BasePrice: money.Must(10000, "EUR")},
		Now:         now.AddDate(0, -1, 0),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := listings.Save(context.Background(), listing); err != nil {
		t.Fatalf("save listing: %v", err)
	}
	return fx
}

func seedBooking(t *testing.T, fx fixture, id string, checkIn, checkOut time.Time, confirm bool) {
	t.Helper()
	stay, err := domainrange.New(checkIn, checkOut)
	if err != nil {
		t.Fatalf("stay: %v", err)
	}
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
		Guests:    domainbooking.GuestCounts{Adults: 2},
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
	if err := fx.bookings.Save(context.Background(), b); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func requireKind(t *testing.T, err error, kind fault.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s fault, got nil", kind)
	}
	if got := fault.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}

func unitContext(t *testing.T, fx fixture) context.Context {
	t.Helper()
	unit, err := fx.factory.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func TestSubmitGuestReviewClosesBookingAndRatesListing(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	review, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "guest-1",
		Rating:    5,
		Comment:   "spotless and quiet",
		Now:       now,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.Rating != 5 {
		t.Fatalf("rating: got %d", review.Rating)
	}

	b, _ := fx.bookings.ByID(context.Background(), "bk-1")
	if b.State != domainbooking.StateCompleted {
		t.Fatalf("booking should auto-complete, got %s", b.State)
	}
	if b.Reviews.Guest == "" {
		t.Fatal("review not attached to booking")
	}

	listing, _ := fx.listings.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 5.0 || listing.Rating.Count != 1 {
		t.Fatalf("listing rating: %+v", listing.Rating)
	}
}

func TestSubmitReviewTwiceConflicts(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	cmd := SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "guest-1",
		Rating:    4,
		Comment:   "nice stay",
		Now:       now,
	}
	if _, err := handler.Handle(context.Background(), cmd); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := handler.Handle(context.Background(), cmd)
	requireKind(t, err, fault.KindConflict)
}

func TestSubmitReviewBeforeCheckout(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -2), now.AddDate(0, 0, 3), true)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	_, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "guest-1",
		Rating:    5,
		Comment:   "too early",
		Now:       now,
	})
	requireKind(t, err, fault.KindPolicyViolation)
}

func TestSubmitReviewOnPendingBooking(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), false)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	_, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "guest-1",
		Rating:    5,
		Comment:   "never stayed",
		Now:       now,
	})
	requireKind(t, err, fault.KindPolicyViolation)
}

func TestSubmitReviewByOutsider(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	_, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "stranger",
		Rating:    1,
		Comment:   "drive-by",
		Now:       now,
	})
	requireKind(t, err, fault.KindUnauthorized)
}

func TestHostReviewDoesNotTouchListingRating(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	review, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "host-1",
		Rating:    5,
		Comment:   "great guests",
		Now:       now,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.Role != string(domainbooking.ReviewByHost) {
		t.Fatalf("role: got %q", review.Role)
	}

	listing, _ := fx.listings.ByID(context.Background(), "lst-1")
	if listing.Rating.Count != 0 {
		t.Fatalf("host review must not rate the listing: %+v", listing.Rating)
	}
}

func TestBothPartiesCanReview(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)

	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	if _, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "guest-1",
		Rating:    5,
		Comment:   "lovely",
		Now:       now,
	}); err != nil {
		t.Fatalf("guest review: %v", err)
	}
	if _, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "host-1",
		Rating:    4,
		Comment:   "tidy guests",
		Now:       now,
	}); err != nil {
		t.Fatalf("host review: %v", err)
	}

	b, _ := fx.bookings.ByID(context.Background(), "bk-1")
	if b.Reviews.Guest == "" || b.Reviews.Host == "" {
		t.Fatalf("both slots should be filled: %+v", b.Reviews)
	}
}
