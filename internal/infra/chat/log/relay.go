package log

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"stayloop/internal/app/policies"
)

// Relay is an in-process chat stand-in: it mints thread ids and logs
// system messages instead of calling a real messaging backend.
type Relay struct {
	Logger *slog.Logger
}

func NewRelay(logger *slog.Logger) *Relay {
	return &Relay{Logger: logger}
}

func (r *Relay) OpenThread(ctx context.Context, guestID, hostID, bookingID string) (string, error) {
	threadID := uuid.NewString()
	r.Logger.Info("chat thread opened", "thread_id", threadID, "guest_id", guestID, "host_id", hostID, "booking_id", bookingID)
	return threadID, nil
}

func (r *Relay) PostSystemMessage(ctx context.Context, threadID, text string) error {
	r.Logger.Info("chat system message", "thread_id", threadID, "text", text)
	return nil
}

var _ policies.ChatRelay = (*Relay)(nil)
