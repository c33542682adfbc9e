package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "stayloop/internal/app/outbox"
)

const (
	statusPending = "pending"
	statusSending = "sending"
	statusSent    = "sent"
)

// EventDocument is the persisted outbox row.
type EventDocument struct {
	ID         string            `bson:"_id"`
	Name       string            `bson:"name"`
	Aggregate  string            `bson:"aggregate"`
	Payload    []byte            `bson:"payload"`
	Headers    map[string]string `bson:"headers,omitempty"`
	OccurredAt time.Time         `bson:"occurred_at"`
	Status     string            `bson:"status"`
	Attempts   int               `bson:"attempts"`
	NextRetry  time.Time         `bson:"next_retry"`
	LockedBy   string            `bson:"locked_by,omitempty"`
	LastError  string            `bson:"last_error,omitempty"`
	SentAt     time.Time         `bson:"sent_at,omitempty"`
}

// Store persists staged events in the same database as the aggregates so
// that Add participates in the surrounding transaction.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{col: db.Collection("outbox_events")}
}

// Add stages a record for the background worker.
func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := EventDocument{
		ID:         uuid.NewString(),
		Name:       record.Name,
		Aggregate:  record.Aggregate,
		Payload:    record.Payload,
		Headers:    record.Headers,
		OccurredAt: record.OccurredAt,
		Status:     statusPending,
		NextRetry:  time.Now().UTC(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// Flush is a no-op: the worker drains the collection outside the request.
func (s *Store) Flush(ctx context.Context) error {
	return nil
}

// Claim atomically takes one due pending event for the given worker.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	filter := bson.M{
		"status":     statusPending,
		"next_retry": bson.M{"$lte": time.Now().UTC()},
	}
	update := bson.M{"$set": bson.M{
		"status":    statusSending,
		"locked_by": workerID,
	}, "$inc": bson.M{"attempts": 1}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"status":  statusSent,
		"sent_at": time.Now().UTC(),
	}, "$unset": bson.M{"locked_by": "", "last_error": ""}}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	update := bson.M{"$set": bson.M{
		"status":     statusPending,
		"next_retry": retryAt.UTC(),
		"last_error": reason,
	}, "$unset": bson.M{"locked_by": ""}}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

var _ appoutbox.Outbox = (*Store)(nil)
