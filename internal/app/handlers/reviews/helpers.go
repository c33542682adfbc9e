package reviews

import (
	"context"
	"time"

	"stayloop/internal/app/ratings"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

func recalculateListingRating(ctx context.Context, unit uow.UnitOfWork, listingID domainlistings.ListingID, now time.Time) error {
	aggregator := ratings.NewAggregator(unit.Listings(), unit.Reviews())
	return aggregator.Recompute(ctx, listingID, now)
}
