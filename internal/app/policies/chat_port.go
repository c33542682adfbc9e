package policies

import "context"

// ChatRelay provisions a conversation thread between a guest and a host
// when a booking is requested.
type ChatRelay interface {
	OpenThread(ctx context.Context, guestID, hostID, bookingID string) (threadID string, err error)
	PostSystemMessage(ctx context.Context, threadID, text string) error
}
