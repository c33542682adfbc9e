package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainreviews "stayloop/internal/domain/reviews"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection("agg_review")}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ByBookingRole(ctx context.Context, bookingID domainbooking.BookingID, role domainbooking.ReviewRole) (*domainreviews.Review, error) {
	var doc reviewDocument
	filter := bson.M{"booking_id": string(bookingID), "role": string(role)}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListPublicByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, int, error) {
	filter := bson.M{
		"listing_id": string(listingID),
		"is_public":  true,
		"role":       string(domainbooking.ReviewByGuest),
	}
	return r.page(ctx, filter, limit, offset)
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID string, limit, offset int) ([]*domainreviews.Review, int, error) {
	filter := bson.M{"reviewee_id": revieweeID, "is_public": true}
	return r.page(ctx, filter, limit, offset)
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := newReviewDocument(review)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ReviewRepository) Delete(ctx context.Context, id domainreviews.ReviewID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainreviews.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) page(ctx context.Context, filter bson.M, limit, offset int) ([]*domainreviews.Review, int, error) {
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetSkip(int64(offset)).SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	var out []*domainreviews.Review
	for cursor.Next(ctx) {
		var doc reviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, int(total), cursor.Err()
}

type reviewDocument struct {
	ID         string                         `bson:"_id"`
	BookingID  string                         `bson:"booking_id"`
	ListingID  string                         `bson:"listing_id"`
	ReviewerID string                         `bson:"reviewer_id"`
	RevieweeID string                         `bson:"reviewee_id"`
	Role       string                         `bson:"role"`
	Rating     int                            `bson:"rating"`
	Categories domainreviews.CategoryRatings  `bson:"categories"`
	Comment    string                         `bson:"comment"`
	Response   *reviewResponseDocument        `bson:"response,omitempty"`
	IsPublic   bool                           `bson:"is_public"`
	CreatedAt  int64                          `bson:"created_at"`
}

type reviewResponseDocument struct {
	Comment   string `bson:"comment"`
	CreatedAt int64  `bson:"created_at"`
}

func newReviewDocument(review *domainreviews.Review) reviewDocument {
	doc := reviewDocument{
		ID:         string(review.ID),
		BookingID:  string(review.BookingID),
		ListingID:  string(review.ListingID),
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Role:       string(review.Role),
		Rating:     review.Rating,
		Categories: review.Categories,
		Comment:    review.Comment,
		IsPublic:   review.IsPublic,
		CreatedAt:  review.CreatedAt.UnixMilli(),
	}
	if review.Response != nil {
		doc.Response = &reviewResponseDocument{Comment: review.Response.Comment, CreatedAt: review.Response.CreatedAt.UnixMilli()}
	}
	return doc
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	review := &domainreviews.Review{
		ID:         domainreviews.ReviewID(d.ID),
		BookingID:  domainbooking.BookingID(d.BookingID),
		ListingID:  domainlistings.ListingID(d.ListingID),
		ReviewerID: d.ReviewerID,
		RevieweeID: d.RevieweeID,
		Role:       domainbooking.ReviewRole(d.Role),
		Rating:     d.Rating,
		Categories: d.Categories,
		Comment:    d.Comment,
		IsPublic:   d.IsPublic,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
	if d.Response != nil {
		review.Response = &domainreviews.Response{Comment: d.Response.Comment, CreatedAt: timestampToTime(d.Response.CreatedAt)}
	}
	return review
}
