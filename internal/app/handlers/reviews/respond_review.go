package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainreviews "stayloop/internal/domain/reviews"
)

const respondReviewKey = "reviews.respond"

// RespondToReviewCommand records the reviewee's public reply.
type RespondToReviewCommand struct {
	ReviewID string
	AuthorID string
	Comment  string
}

func (c RespondToReviewCommand) Key() string { return respondReviewKey }

type RespondToReviewHandler struct {
	Logger *slog.Logger
}

func (h *RespondToReviewHandler) Handle(ctx context.Context, cmd RespondToReviewCommand) (dto.Review, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.Review{}, uow.ErrUnitOfWorkMissing
	}

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		if errors.Is(err, domainreviews.ErrNotFound) {
			return dto.Review{}, fault.NotFound("review not found")
		}
		return dto.Review{}, err
	}
	if review.RevieweeID != cmd.AuthorID {
		return dto.Review{}, fault.Unauthorized("only the reviewee can respond")
	}

	now := time.Now().UTC()
	if err := review.Respond(cmd.Comment, now); err != nil {
		return dto.Review{}, fault.Validation("comment", err.Error())
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review response recorded", "review_id", review.ID, "reviewee_id", cmd.AuthorID)
	}

	return dto.MapReview(review), nil
}

var _ commands.Handler[RespondToReviewCommand, dto.Review] = (*RespondToReviewHandler)(nil)
