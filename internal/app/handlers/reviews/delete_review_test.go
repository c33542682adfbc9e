package reviews

import (
	"context"
	"testing"

	"stayloop/internal/app/fault"
)

func submitGuestReview(t *testing.T, fx fixture, rating int) string {
	t.Helper()
	handler := &SubmitReviewHandler{UoWFactory: fx.factory}
	review, err := handler.Handle(context.Background(), SubmitReviewCommand{
		BookingID: "bk-1",
		AuthorID:  "guest-1",
		Rating:    rating,
		Comment:   "stay notes",
		Now:       now,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return review.ID
}

func TestDeleteReviewRollsBackRating(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	reviewID := submitGuestReview(t, fx, 5)

	listing, _ := fx.listings.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 5.0 {
		t.Fatalf("precondition: %+v", listing.Rating)
	}

	handler := &DeleteReviewHandler{}
	result, err := handler.Handle(unitContext(t, fx), DeleteReviewCommand{
		ReviewID: reviewID,
		AuthorID: "guest-1",
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.ReviewID != reviewID {
		t.Fatalf("result: %+v", result)
	}

	listing, _ = fx.listings.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 0 || listing.Rating.Count != 0 {
		t.Fatalf("rating should reset: %+v", listing.Rating)
	}

	b, _ := fx.bookings.ByID(context.Background(), "bk-1")
	if b.Reviews.Guest != "" {
		t.Fatalf("review still attached: %+v", b.Reviews)
	}
}

func TestDeleteReviewFreesSlotForResubmission(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	reviewID := submitGuestReview(t, fx, 2)

	if _, err := (&DeleteReviewHandler{}).Handle(unitContext(t, fx), DeleteReviewCommand{
		ReviewID: reviewID,
		AuthorID: "guest-1",
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	submitGuestReview(t, fx, 4)
	listing, _ := fx.listings.ByID(context.Background(), "lst-1")
	if listing.Rating.Average != 4.0 || listing.Rating.Count != 1 {
		t.Fatalf("rating after resubmit: %+v", listing.Rating)
	}
}

func TestDeleteReviewOnlyByAuthor(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	reviewID := submitGuestReview(t, fx, 5)

	_, err := (&DeleteReviewHandler{}).Handle(unitContext(t, fx), DeleteReviewCommand{
		ReviewID: reviewID,
		AuthorID: "host-1",
	})
	requireKind(t, err, fault.KindUnauthorized)
}

func TestDeleteReviewMissing(t *testing.T) {
	fx := newFixture(t)
	_, err := (&DeleteReviewHandler{}).Handle(unitContext(t, fx), DeleteReviewCommand{
		ReviewID: "missing",
		AuthorID: "guest-1",
	})
	requireKind(t, err, fault.KindNotFound)
}

func TestRespondToReview(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	reviewID := submitGuestReview(t, fx, 4)

	handler := &RespondToReviewHandler{}
	review, err := handler.Handle(unitContext(t, fx), RespondToReviewCommand{
		ReviewID: reviewID,
		AuthorID: "host-1",
		Comment:  "thanks for staying",
	})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if review.Response == nil || review.Response.Comment != "thanks for staying" {
		t.Fatalf("response: %+v", review.Response)
	}
}

func TestRespondToReviewOnlyByReviewee(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	reviewID := submitGuestReview(t, fx, 4)

	_, err := (&RespondToReviewHandler{}).Handle(unitContext(t, fx), RespondToReviewCommand{
		ReviewID: reviewID,
		AuthorID: "guest-1",
		Comment:  "replying to myself",
	})
	requireKind(t, err, fault.KindUnauthorized)
}

func TestRespondToReviewRequiresComment(t *testing.T) {
	fx := newFixture(t)
	seedBooking(t, fx, "bk-1", now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), true)
	reviewID := submitGuestReview(t, fx, 4)

	_, err := (&RespondToReviewHandler{}).Handle(unitContext(t, fx), RespondToReviewCommand{
		ReviewID: reviewID,
		AuthorID: "host-1",
		Comment:  "   ",
	})
	requireKind(t, err, fault.KindValidation)
}
