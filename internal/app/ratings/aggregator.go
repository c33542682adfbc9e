package ratings

import (
	"context"
	"math"
	"time"

	"stayloop/internal/domain/booking"
	"stayloop/internal/domain/listings"
	"stayloop/internal/domain/reviews"
)

const recomputePageSize = 200

// Aggregator keeps the denormalized listing rating in step with the
// public guest reviews attached to it.
type Aggregator struct {
	listings listings.ListingRepository
	reviews  reviews.Repository
}

func NewAggregator(listingRepo listings.ListingRepository, reviewRepo reviews.Repository) *Aggregator {
	return &Aggregator{listings: listingRepo, reviews: reviewRepo}
}

// Recompute rebuilds the average from scratch and writes it onto the
// listing. Only public guest reviews count; the average is rounded to
// one decimal place and resets to zero when no review remains.
func (a *Aggregator) Recompute(ctx context.Context, listingID listings.ListingID, now time.Time) error {
	listing, err := a.listings.ByID(ctx, listingID)
	if err != nil {
		return err
	}

	var sum, count int
	offset := 0
	for {
		page, _, err := a.reviews.ListPublicByListing(ctx, listingID, recomputePageSize, offset)
		if err != nil {
			return err
		}
		for _, r := range page {
			if r.Role != booking.ReviewByGuest {
				continue
			}
			sum += r.Rating
			count++
		}
		if len(page) < recomputePageSize {
			break
		}
		offset += len(page)
	}

	var average float64
	if count > 0 {
		average = math.Round(float64(sum)/float64(count)*10) / 10
	}
	if err := listing.ApplyRating(average, count, now); err != nil {
		return err
	}
	return a.listings.Save(ctx, listing)
}
