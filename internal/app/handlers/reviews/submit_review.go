package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainbooking "stayloop/internal/domain/booking"
	domainreviews "stayloop/internal/domain/reviews"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand creates the author's review for a finished booking.
type SubmitReviewCommand struct {
	BookingID  string `validate:"required"`
	AuthorID   string `validate:"required"`
	Rating     int    `validate:"min=1,max=5"`
	Categories domainreviews.CategoryRatings
	Comment    string `validate:"required"`
	Now        time.Time
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

// SubmitReviewHandler validates and stores a new review, updates the listing
// rating and closes the booking if it was still confirmed.
type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.Review{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.Review{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	booking, err := unit.Booking().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		if errors.Is(err, domainbooking.ErrNotFound) {
			return dto.Review{}, fault.NotFound("booking not found")
		}
		return dto.Review{}, err
	}
	if !booking.IsParticipant(cmd.AuthorID) {
		return dto.Review{}, fault.Unauthorized("booking belongs to another user")
	}
	if booking.State != domainbooking.StateConfirmed && booking.State != domainbooking.StateCompleted {
		return dto.Review{}, fault.PolicyViolation("only confirmed or completed bookings can be reviewed")
	}
	if booking.Range.CheckOut.After(now) {
		return dto.Review{}, fault.PolicyViolation("stay has not ended yet")
	}

	role := domainbooking.ReviewByGuest
	if cmd.AuthorID == booking.HostID {
		role = domainbooking.ReviewByHost
	}

	if existing, err := unit.Reviews().ByBookingRole(ctx, booking.ID, role); err == nil && existing != nil {
		return dto.Review{}, fault.Conflict("review already submitted for this booking")
	} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) {
		return dto.Review{}, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:         domainreviews.ReviewID(uuid.NewString()),
		BookingID:  booking.ID,
		ListingID:  booking.ListingID,
		ReviewerID: cmd.AuthorID,
		RevieweeID: booking.CounterpartOf(cmd.AuthorID),
		Role:       role,
		Rating:     cmd.Rating,
		Categories: cmd.Categories,
		Comment:    cmd.Comment,
		CreatedAt:  now,
	})
	if err != nil {
		return dto.Review{}, fault.Validation("review", err.Error())
	}
	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}

	if err := booking.AttachReview(role, string(review.ID), now); err != nil {
		return dto.Review{}, fault.Conflict("review already submitted for this booking")
	}
	if booking.State == domainbooking.StateConfirmed {
		if err := booking.Complete(now); err != nil {
			return dto.Review{}, err
		}
	}
	if err := unit.Booking().Save(ctx, booking); err != nil {
		return dto.Review{}, err
	}

	if role == domainbooking.ReviewByGuest {
		if err := recalculateListingRating(ctx, unit, booking.ListingID, now); err != nil {
			return dto.Review{}, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.Review{}, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "booking_id", booking.ID, "listing_id", booking.ListingID, "reviewer_id", cmd.AuthorID, "role", role, "rating", cmd.Rating)
	}

	return dto.MapReview(review), nil
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
