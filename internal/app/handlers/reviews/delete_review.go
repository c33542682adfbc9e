package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainreviews "stayloop/internal/domain/reviews"
)

const deleteReviewKey = "reviews.delete"

// DeleteReviewCommand removes the author's own review and rolls the listing
// rating back accordingly.
type DeleteReviewCommand struct {
	ReviewID string
	AuthorID string
}

func (c DeleteReviewCommand) Key() string { return deleteReviewKey }

type DeleteReviewResult struct {
	ReviewID string `json:"review_id"`
}

type DeleteReviewHandler struct {
	Logger *slog.Logger
}

func (h *DeleteReviewHandler) Handle(ctx context.Context, cmd DeleteReviewCommand) (*DeleteReviewResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		if errors.Is(err, domainreviews.ErrNotFound) {
			return nil, fault.NotFound("review not found")
		}
		return nil, err
	}
	if review.ReviewerID != cmd.AuthorID {
		return nil, fault.Unauthorized("only the author can delete a review")
	}

	if err := unit.Reviews().Delete(ctx, review.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if booking, err := unit.Booking().ByID(ctx, review.BookingID); err == nil {
		booking.DetachReview(review.Role, now)
		if err := unit.Booking().Save(ctx, booking); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, domainbooking.ErrNotFound) {
		return nil, err
	}

	if review.Role == domainbooking.ReviewByGuest {
		if err := recalculateListingRating(ctx, unit, review.ListingID, now); err != nil {
			return nil, err
		}
	}

	if h.Logger != nil {
		h.Logger.Info("review deleted", "review_id", review.ID, "listing_id", review.ListingID, "author_id", cmd.AuthorID)
	}

	return &DeleteReviewResult{ReviewID: string(review.ID)}, nil
}

var _ commands.Handler[DeleteReviewCommand, *DeleteReviewResult] = (*DeleteReviewHandler)(nil)
