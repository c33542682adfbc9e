package reviews

import (
	"context"

	"stayloop/internal/app/dto"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

const (
	listListingReviewsKey = "reviews.listing.list"
	listUserReviewsKey    = "reviews.user.list"
)

type ListListingReviewsQuery struct {
	ListingID string
	Limit     int
	Offset    int
}

func (q ListListingReviewsQuery) Key() string { return listListingReviewsKey }

// ListListingReviewsHandler returns the public guest reviews of a listing,
// newest first.
type ListListingReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListListingReviewsHandler) Handle(ctx context.Context, q ListListingReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	reviews, total, err := unit.Reviews().ListPublicByListing(execCtx, domainlistings.ListingID(q.ListingID), q.Limit, q.Offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.MapReviewCollection(reviews, total), nil
}

type ListUserReviewsQuery struct {
	UserID string
	Limit  int
	Offset int
}

func (q ListUserReviewsQuery) Key() string { return listUserReviewsKey }

// ListUserReviewsHandler returns the reviews written about a user.
type ListUserReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUserReviewsHandler) Handle(ctx context.Context, q ListUserReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	reviews, total, err := unit.Reviews().ListByReviewee(execCtx, q.UserID, q.Limit, q.Offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.MapReviewCollection(reviews, total), nil
}

var _ queries.Handler[ListListingReviewsQuery, dto.ReviewCollection] = (*ListListingReviewsHandler)(nil)
var _ queries.Handler[ListUserReviewsQuery, dto.ReviewCollection] = (*ListUserReviewsHandler)(nil)
