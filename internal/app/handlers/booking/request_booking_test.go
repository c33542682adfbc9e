package booking

import (
	"context"
	"testing"
	"time"

	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainpricing "stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/money"
	"stayloop/internal/infra/storage/memory"
)

type fixture struct {
	factory  memory.Factory
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	reviews  *memory.ReviewsRepository
}

func newFixture() fixture {
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	reviews := memory.NewReviewsRepository()
	users := memory.NewUserRepository()
	return fixture{
		factory: memory.Factory{
			ListingsRepo: listings,
			BookingRepo:  bookings,
			ReviewsRepo:  reviews,
			UsersRepo:    users,
		},
		listings: listings,
		bookings: bookings,
		reviews:  reviews,
	}
}

func futureDay(days int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, days)
}

func activeListing(t *testing.T, fx fixture, guestsLimit int) *domainlistings.Listing {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Harbour apartment",
		Address:     domainlistings.Address{Line1: "Dock 5", City: "Rotterdam", Country: "NL"},
		GuestsLimit: guestsLimit,
		MaxStay:     30,
		Pricing: domainlistings.Pricing{
			BasePrice:   money.Must(4500, "EUR"),
			CleaningFee: money.Zero("EUR"),
		},
		Now: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := listing.Activate(time.Now().UTC()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := fx.listings.Save(context.Background(), listing); err != nil {
		t.Fatalf("save listing: %v", err)
	}
	return listing
}

func requestHandler(fx fixture) *RequestBookingHandler {
	return &RequestBookingHandler{
		UoWFactory: fx.factory,
		Calculator: domainpricing.Calculator{},
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

func TestRequestBookingQuotesWeekStay(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)

	result, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(21),
		Guests:    domainbooking.GuestCounts{Adults: 2},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Status != string(domainbooking.StatePending) {
		t.Fatalf("status: got %q", result.Status)
	}
	if result.Total != 31500 || result.Currency != "EUR" {
		t.Fatalf("quote: got %d %s", result.Total, result.Currency)
	}

	stored, err := fx.bookings.ByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("stored booking: %v", err)
	}
	if stored.Payment != domainbooking.PaymentPending {
		t.Fatalf("payment: got %s", stored.Payment)
	}
}

func TestRequestBookingConflictsWithBlockingBooking(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	handler := requestHandler(fx)

	first := RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(17),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	}
	if _, err := handler.Handle(context.Background(), first); err != nil {
		t.Fatalf("first request: %v", err)
	}

	second := first
	second.CommandID = "bk-2"
	second.GuestID = "guest-2"
	second.CheckIn = futureDay(16)
	second.CheckOut = futureDay(19)
	_, err := handler.Handle(context.Background(), second)
	requireKind(t, err, fault.KindConflict)
}

func TestRequestBookingAllowsBackToBackStays(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)
	handler := requestHandler(fx)

	if _, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(17),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	}); err != nil {
		t.Fatalf("first request: %v", err)
	}

	if _, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-2",
		ListingID: "lst-1",
		GuestID:   "guest-2",
		CheckIn:   futureDay(17),
		CheckOut:  futureDay(20),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	}); err != nil {
		t.Fatalf("back-to-back request should succeed: %v", err)
	}
}

func TestRequestBookingRejectsOwnListing(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)

	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "host-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(16),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	})
	requireKind(t, err, fault.KindPolicyViolation)
}

func TestRequestBookingChecksCapacity(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 2)

	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(16),
		Guests:    domainbooking.GuestCounts{Adults: 2, Children: 1},
	})
	requireKind(t, err, fault.KindValidation)
}

func TestRequestBookingChecksPetsRule(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)

	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(16),
		Guests:    domainbooking.GuestCounts{Adults: 1, Pets: 1},
	})
	requireKind(t, err, fault.KindPolicyViolation)
}

func TestRequestBookingRejectsInactiveListing(t *testing.T) {
	fx := newFixture()
	listing := activeListing(t, fx, 4)
	if err := listing.Deactivate(time.Now().UTC()); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := fx.listings.Save(context.Background(), listing); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(16),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	})
	requireKind(t, err, fault.KindPolicyViolation)
}

func TestRequestBookingRejectsPastCheckIn(t *testing.T) {
	fx := newFixture()
	activeListing(t, fx, 4)

	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "lst-1",
		GuestID:   "guest-1",
		CheckIn:   futureDay(-3),
		CheckOut:  futureDay(-1),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	})
	requireKind(t, err, fault.KindValidation)
}

func TestRequestBookingUnknownListing(t *testing.T) {
	fx := newFixture()

	_, err := requestHandler(fx).Handle(context.Background(), RequestBookingCommand{
		CommandID: "bk-1",
		ListingID: "missing",
		GuestID:   "guest-1",
		CheckIn:   futureDay(14),
		CheckOut:  futureDay(16),
		Guests:    domainbooking.GuestCounts{Adults: 1},
	})
	requireKind(t, err, fault.KindNotFound)
}

func unitContext(t *testing.T, fx fixture) context.Context {
	t.Helper()
	unit, err := fx.factory.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}
