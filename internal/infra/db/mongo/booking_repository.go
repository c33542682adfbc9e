package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayloop/internal/domain/booking"
	"stayloop/internal/domain/listings"
	domainpricing "stayloop/internal/domain/pricing"
	domainrange "stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"host_id": hostID})
}

// FindConflicting matches blocking bookings whose half-open range overlaps
// the candidate: check_in < candidate.check_out AND check_out > candidate.check_in.
func (r *BookingRepository) FindConflicting(ctx context.Context, listingID listings.ListingID, stay domainrange.DateRange, exclude domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"listing_id":      string(listingID),
		"state":           bson.M{"$in": []string{string(domainbooking.StatePending), string(domainbooking.StateConfirmed)}},
		"range.check_in":  bson.M{"$lt": stay.CheckOut.UnixMilli()},
		"range.check_out": bson.M{"$gt": stay.CheckIn.UnixMilli()},
	}
	if exclude != "" {
		filter["_id"] = bson.M{"$ne": string(exclude)}
	}
	return r.list(ctx, filter)
}

func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, guestID string, cutoff time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"state":           string(domainbooking.StateConfirmed),
		"range.check_out": bson.M{"$lte": cutoff.UnixMilli()},
	}
	if guestID != "" {
		filter["guest_id"] = guestID
	}
	return r.list(ctx, filter)
}

func (r *BookingRepository) StatsByHost(ctx context.Context, hostID string) ([]domainbooking.StatusStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"host_id": hostID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$state",
			"count": bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{"$state", bson.A{
					string(domainbooking.StateConfirmed),
					string(domainbooking.StateCompleted),
				}}},
				"$price.total.amount",
				0,
			}}},
			"currency": bson.M{"$first": "$price.total.currency"},
		}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rows []struct {
		State    string `bson:"_id"`
		Count    int    `bson:"count"`
		Revenue  int64  `bson:"revenue"`
		Currency string `bson:"currency"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	stats := make([]domainbooking.StatusStat, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, domainbooking.StatusStat{
			Status:  domainbooking.BookingState(row.State),
			Count:   row.Count,
			Revenue: money.Money{Amount: row.Revenue, Currency: row.Currency},
		})
	}
	return stats, nil
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		agg, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID              string                     `bson:"_id"`
	ListingID       string                     `bson:"listing_id"`
	GuestID         string                     `bson:"guest_id"`
	HostID          string                     `bson:"host_id"`
	Range           rangeDocument              `bson:"range"`
	Guests          domainbooking.GuestCounts  `bson:"guests"`
	Price           domainpricing.Snapshot     `bson:"price"`
	State           string                     `bson:"state"`
	Payment         string                     `bson:"payment"`
	PaymentDetails  paymentDetailsDocument     `bson:"payment_details"`
	SpecialRequests string                     `bson:"special_requests,omitempty"`
	GuestMessage    string                     `bson:"guest_message,omitempty"`
	HostResponse    *hostResponseDocument      `bson:"host_response,omitempty"`
	Cancellation    *cancellationDocument      `bson:"cancellation,omitempty"`
	Reviews         domainbooking.ReviewRefs   `bson:"reviews"`
	ChatThreadID    string                     `bson:"chat_thread_id,omitempty"`
	CreatedAt       int64                      `bson:"created_at"`
	UpdatedAt       int64                      `bson:"updated_at"`
	Version         int64                      `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type paymentDetailsDocument struct {
	TransactionID string      `bson:"transaction_id,omitempty"`
	PaidAt        int64       `bson:"paid_at,omitempty"`
	RefundAmount  money.Money `bson:"refund_amount,omitempty"`
	RefundedAt    int64       `bson:"refunded_at,omitempty"`
}

type hostResponseDocument struct {
	Message     string `bson:"message"`
	RespondedAt int64  `bson:"responded_at"`
}

type cancellationDocument struct {
	CancelledBy  string      `bson:"cancelled_by"`
	CancelledAt  int64       `bson:"cancelled_at"`
	Reason       string      `bson:"reason"`
	RefundAmount money.Money `bson:"refund_amount"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		HostID:    b.HostID,
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:    b.Guests,
		Price:     b.Price,
		State:     string(b.State),
		Payment:   string(b.Payment),
		PaymentDetails: paymentDetailsDocument{
			TransactionID: b.PaymentDetails.TransactionID,
			RefundAmount:  b.PaymentDetails.RefundAmount,
		},
		SpecialRequests: b.SpecialRequests,
		GuestMessage:    b.GuestMessage,
		Reviews:         b.Reviews,
		ChatThreadID:    b.ChatThreadID,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
	if !b.PaymentDetails.PaidAt.IsZero() {
		doc.PaymentDetails.PaidAt = b.PaymentDetails.PaidAt.UnixMilli()
	}
	if !b.PaymentDetails.RefundedAt.IsZero() {
		doc.PaymentDetails.RefundedAt = b.PaymentDetails.RefundedAt.UnixMilli()
	}
	if b.HostResponse != nil {
		doc.HostResponse = &hostResponseDocument{Message: b.HostResponse.Message, RespondedAt: b.HostResponse.RespondedAt.UnixMilli()}
	}
	if b.Cancellation != nil {
		doc.Cancellation = &cancellationDocument{
			CancelledBy:  b.Cancellation.CancelledBy,
			CancelledAt:  b.Cancellation.CancelledAt.UnixMilli(),
			Reason:       b.Cancellation.Reason,
			RefundAmount: b.Cancellation.RefundAmount,
		}
	}
	return doc
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	dr := domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)}
	agg := &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		GuestID:   d.GuestID,
		HostID:    d.HostID,
		Range:     dr,
		Guests:    d.Guests,
		Price:     d.Price,
		State:     domainbooking.BookingState(d.State),
		Payment:   domainbooking.PaymentState(d.Payment),
		PaymentDetails: domainbooking.PaymentDetails{
			TransactionID: d.PaymentDetails.TransactionID,
			RefundAmount:  d.PaymentDetails.RefundAmount,
		},
		SpecialRequests: d.SpecialRequests,
		GuestMessage:    d.GuestMessage,
		Reviews:         d.Reviews,
		ChatThreadID:    d.ChatThreadID,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	if d.PaymentDetails.PaidAt != 0 {
		agg.PaymentDetails.PaidAt = timestampToTime(d.PaymentDetails.PaidAt)
	}
	if d.PaymentDetails.RefundedAt != 0 {
		agg.PaymentDetails.RefundedAt = timestampToTime(d.PaymentDetails.RefundedAt)
	}
	if d.HostResponse != nil {
		agg.HostResponse = &domainbooking.HostResponse{Message: d.HostResponse.Message, RespondedAt: timestampToTime(d.HostResponse.RespondedAt)}
	}
	if d.Cancellation != nil {
		agg.Cancellation = &domainbooking.Cancellation{
			CancelledBy:  d.Cancellation.CancelledBy,
			CancelledAt:  timestampToTime(d.Cancellation.CancelledAt),
			Reason:       d.Cancellation.Reason,
			RefundAmount: d.Cancellation.RefundAmount,
		}
	}
	return agg, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
