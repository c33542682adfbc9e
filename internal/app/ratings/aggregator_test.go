package ratings

import (
	"context"
	"fmt"
	"testing"
	"time"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainreviews "stayloop/internal/domain/reviews"
	"stayloop/internal/domain/shared/money"
	"stayloop/internal/infra/storage/memory"
)

var now = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)

func seedListing(t *testing.T, repo *memory.ListingRepository) *domainlistings.Listing {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:          "lst-1",
		Host:        "host-1",
		Title:       "Canal view loft",
		GuestsLimit: 2,
		MaxStay:     30,
		Pricing:     domainlistings.Pricing{BasePrice: money.Must(10000, "EUR")},
		Now:         now,
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if err := repo.Save(context.Background(), listing); err != nil {
		t.Fatalf("save: %v", err)
	}
	return listing
}

func seedReview(t *testing.T, repo *memory.ReviewsRepository, id string, rating int, role domainbooking.ReviewRole) *domainreviews.Review {
	t.Helper()
	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:         domainreviews.ReviewID(id),
		BookingID:  domainbooking.BookingID("bk-" + id),
		ListingID:  "lst-1",
		ReviewerID: "guest-1",
		RevieweeID: "host-1",
		Role:       role,
		Rating:     rating,
		Comment:    "stay notes",
		CreatedAt:  now,
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := repo.Save(context.Background(), review); err != nil {
		t.Fatalf("save review: %v", err)
	}
	return review
}

func TestRecomputeAveragesGuestReviews(t *testing.T) {
	listingRepo := memory.NewListingRepository()
	reviewRepo := memory.NewReviewsRepository()
	seedListing(t, listingRepo)
	seedReview(t, reviewRepo, "rv-1", 5, domainbooking.ReviewByGuest)
	seedReview(t, reviewRepo, "rv-2", 4, domainbooking.ReviewByGuest)

	agg := NewAggregator(listingRepo, reviewRepo)
	if err := agg.Recompute(context.Background(), "lst-1", now); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	listing, err := listingRepo.ByID(context.Background(), "lst-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if listing.Rating.Average != 4.5 || listing.Rating.Count != 2 {
		t.Fatalf("got %+v", listing.Rating)
	}
}

func TestRecomputeRoundsToOneDecimal(t *testing.T) {
	listingRepo := memory.NewListingRepository()
	reviewRepo := memory.NewReviewsRepository()
	seedListing(t, listingRepo)
	seedReview(t, reviewRepo, "rv-1", 5, domainbooking.ReviewByGuest)
	seedReview(t, reviewRepo, "rv-2", 4, domainbooking.ReviewByGuest)
	seedReview(t, reviewRepo, "rv-3", 4, domainbooking.ReviewByGuest)

	agg := NewAggregator(listingRepo, reviewRepo)
	if err := agg.Recompute(context.Background(), "lst-1", now); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	listing, _ := listingRepo.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 4.3 {
		t.Fatalf("average: got %v", listing.Rating.Average)
	}
}

func TestRecomputeResetsWhenLastReviewGoes(t *testing.T) {
	listingRepo := memory.NewListingRepository()
	reviewRepo := memory.NewReviewsRepository()
	seedListing(t, listingRepo)
	seedReview(t, reviewRepo, "rv-1", 5, domainbooking.ReviewByGuest)

	agg := NewAggregator(listingRepo, reviewRepo)
	if err := agg.Recompute(context.Background(), "lst-1", now); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	listing, _ := listingRepo.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 5.0 || listing.Rating.Count != 1 {
		t.Fatalf("after submit: %+v", listing.Rating)
	}

	if err := reviewRepo.Delete(context.Background(), "rv-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := agg.Recompute(context.Background(), "lst-1", now); err != nil {
		t.Fatalf("recompute after delete: %v", err)
	}
	listing, _ = listingRepo.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 0 || listing.Rating.Count != 0 {
		t.Fatalf("after delete: %+v", listing.Rating)
	}
}

func TestRecomputeSkipsHostReviews(t *testing.T) {
	listingRepo := memory.NewListingRepository()
	reviewRepo := memory.NewReviewsRepository()
	seedListing(t, listingRepo)
	seedReview(t, reviewRepo, "rv-1", 5, domainbooking.ReviewByGuest)
	seedReview(t, reviewRepo, "rv-2", 1, domainbooking.ReviewByHost)

	agg := NewAggregator(listingRepo, reviewRepo)
	if err := agg.Recompute(context.Background(), "lst-1", now); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	listing, _ := listingRepo.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 5.0 || listing.Rating.Count != 1 {
		t.Fatalf("host review must not count: %+v", listing.Rating)
	}
}

func TestRecomputePagesThroughLargeSets(t *testing.T) {
	listingRepo := memory.NewListingRepository()
	reviewRepo := memory.NewReviewsRepository()
	seedListing(t, listingRepo)
	for i := 0; i < recomputePageSize+25; i++ {
		seedReview(t, reviewRepo, fmt.Sprintf("rv-%03d", i), 4, domainbooking.ReviewByGuest)
	}

	agg := NewAggregator(listingRepo, reviewRepo)
	if err := agg.Recompute(context.Background(), "lst-1", now); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	listing, _ := listingRepo.ByID(context.Background(), "lst-1")
	if listing.Rating.Count != recomputePageSize+25 {
		t.Fatalf("count: got %d", listing.Rating.Count)
	}
	if listing.Rating.Average != 4.0 {
		t.Fatalf("average: got %v", listing.Rating.Average)
	}
}
