package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// GuestSweeper closes overdue confirmed bookings for one guest.
type GuestSweeper interface {
	SweepGuest(ctx context.Context, guestID string, now time.Time) (int, error)
}

// SweepTrigger reacts to booking confirmation events: once a booking is
// confirmed the guest becomes a candidate for completion sweeping, so a
// targeted sweep runs ahead of the periodic one.
type SweepTrigger struct {
	Sweeper GuestSweeper
	Logger  *slog.Logger
}

type bookingEventEnvelope struct {
	Type string `json:"type"`
	Data struct {
		GuestID string `json:"GuestID"`
	} `json:"data"`
}

func (t *SweepTrigger) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope bookingEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		if t.Logger != nil {
			t.Logger.Warn("skipping malformed booking event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if envelope.Type != "booking.confirmed.v1" || envelope.Data.GuestID == "" {
		return nil
	}
	closed, err := t.Sweeper.SweepGuest(ctx, envelope.Data.GuestID, time.Now())
	if err != nil {
		if t.Logger != nil {
			t.Logger.Error("sweep after confirmation failed", "guest_id", envelope.Data.GuestID, "error", err)
		}
		return err
	}
	if closed > 0 && t.Logger != nil {
		t.Logger.Info("closed overdue bookings", "guest_id", envelope.Data.GuestID, "count", closed)
	}
	return nil
}

var _ MessageHandler = (*SweepTrigger)(nil)
