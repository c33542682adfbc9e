package dto

import (
	"time"

	domainreviews "stayloop/internal/domain/reviews"
)

// Review is the public review payload.
type Review struct {
	ID         string              `json:"id"`
	BookingID  string              `json:"booking_id"`
	ListingID  string              `json:"listing_id"`
	ReviewerID string              `json:"reviewer_id"`
	RevieweeID string              `json:"reviewee_id"`
	Role       string              `json:"role"`
	Rating     int                 `json:"rating"`
	Categories CategoryRatingsDTO  `json:"categories"`
	Comment    string              `json:"comment"`
	Response   *ReviewResponseDTO  `json:"response,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type CategoryRatingsDTO struct {
	Cleanliness   int `json:"cleanliness,omitempty"`
	Accuracy      int `json:"accuracy,omitempty"`
	CheckIn       int `json:"check_in,omitempty"`
	Communication int `json:"communication,omitempty"`
	Location      int `json:"location,omitempty"`
	Value         int `json:"value,omitempty"`
}

type ReviewResponseDTO struct {
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items []Review `json:"items"`
	Total int      `json:"total"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	mapped := Review{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		ListingID:  string(review.ListingID),
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Role:       string(review.Role),
		Rating:     review.Rating,
		Categories: CategoryRatingsDTO{
			Cleanliness:   review.Categories.Cleanliness,
			Accuracy:      review.Categories.Accuracy,
			CheckIn:       review.Categories.CheckIn,
			Communication: review.Categories.Communication,
			Location:      review.Categories.Location,
			Value:         review.Categories.Value,
		},
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
	if review.Response != nil {
		mapped.Response = &ReviewResponseDTO{
			Comment:   review.Response.Comment,
			CreatedAt: review.Response.CreatedAt,
		}
	}
	return mapped
}

func MapReviewCollection(reviews []*domainreviews.Review, total int) ReviewCollection {
	items := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, MapReview(review))
	}
	return ReviewCollection{Items: items, Total: total}
}
