package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Producer publishes a serialized event to a broker topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains pending outbox documents and relays them to the broker
// wrapped in a CloudEvents 1.0 JSON envelope. Events that fail to publish
// are rescheduled with the configured backoff instead of being dropped.
type Worker struct {
	Store       *Store
	Producer    Producer
	Logger      *slog.Logger
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	interval := w.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOne(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) drainOne(ctx context.Context) error {
	doc, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return err
	}

	payload, headers, err := w.envelope(doc)
	if err != nil {
		return w.reschedule(ctx, doc, err)
	}
	if err := w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers); err != nil {
		return w.reschedule(ctx, doc, err)
	}
	return w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) envelope(doc *EventDocument) ([]byte, map[string]string, error) {
	if !json.Valid(doc.Payload) {
		return nil, nil, errors.New("outbox: event payload is not valid JSON")
	}
	evt := cloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Type:            doc.Name + ".v1",
		Source:          w.source(),
		Time:            doc.OccurredAt,
		DataContentType: "application/json",
		TraceParent:     doc.Headers["traceparent"],
		Data:            doc.Payload,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := make(map[string]string, len(doc.Headers)+1)
	for k, v := range doc.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	return payload, headers, nil
}

// topicFor maps an event name to its aggregate topic: "booking.confirmed"
// goes to "<prefix>booking.events.v1".
func (w *Worker) topicFor(name string) string {
	base, _, _ := strings.Cut(name, ".")
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) reschedule(ctx context.Context, doc *EventDocument, cause error) error {
	if w.Logger != nil {
		w.Logger.Warn("outbox publish failed",
			"event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts, "error", cause)
	}
	retryAt := time.Now().Add(w.backoffFor(doc.Attempts))
	if err := w.Store.MarkFailed(ctx, doc.ID, retryAt, cause.Error()); err != nil && w.Logger != nil {
		w.Logger.Error("outbox retry bookkeeping failed", "event_id", doc.ID, "error", err)
	}
	return nil
}

func (w *Worker) backoffFor(attempts int) time.Duration {
	if len(w.Backoff) == 0 {
		return 5 * time.Second
	}
	if attempts >= len(w.Backoff) {
		attempts = len(w.Backoff) - 1
	}
	return w.Backoff[attempts]
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://stayloop"
}
