package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"stayloop/internal/app/policies"
	domainuser "stayloop/internal/domain/user"
)

var ErrNoToken = errors.New("fcm: user has no registered device token")

// Notifier resolves the recipient's device token and pushes through
// Firebase Cloud Messaging.
type Notifier struct {
	client *messaging.Client
	users  domainuser.Repository
	logger *slog.Logger
}

func NewNotifier(ctx context.Context, credentialsFile string, users domainuser.Repository, logger *slog.Logger) (*Notifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("fcm: init app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: init messaging client: %w", err)
	}
	return &Notifier{client: client, users: users, logger: logger}, nil
}

func (n *Notifier) Send(ctx context.Context, to string, template string, data any) error {
	recipient, err := n.users.ByID(ctx, domainuser.ID(to))
	if err != nil {
		return err
	}
	if recipient.FCMToken == "" {
		return ErrNoToken
	}
	title, body := renderTemplate(template)
	msg := &messaging.Message{
		Token: recipient.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: flatten(template, data),
	}
	if _, err := n.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			n.dropStaleToken(ctx, recipient)
			return nil
		}
		return err
	}
	return nil
}

// dropStaleToken clears tokens FCM reports as unregistered so later sends
// skip the network round trip.
func (n *Notifier) dropStaleToken(ctx context.Context, recipient *domainuser.User) {
	recipient.SetFCMToken("", time.Now())
	if err := n.users.Save(ctx, recipient); err != nil && n.logger != nil {
		n.logger.Warn("failed to clear stale fcm token", "user_id", recipient.ID, "error", err)
	}
}

func renderTemplate(template string) (title, body string) {
	switch template {
	case policies.TemplateNewBooking:
		return "New booking request", "A guest requested to book your place."
	case policies.TemplateBookingConfirmed:
		return "Booking confirmed", "Your booking has been confirmed by the host."
	case policies.TemplateBookingRejected:
		return "Booking declined", "The host declined your booking request."
	case policies.TemplateBookingCancelled:
		return "Booking cancelled", "A booking you are part of was cancelled."
	case policies.TemplateBookingCompleted:
		return "Stay completed", "Your stay is complete. Leave a review!"
	default:
		return "Stayloop", "You have a new update."
	}
}

// flatten folds the notification payload into the string map FCM expects.
func flatten(template string, data any) map[string]string {
	out := map[string]string{"template": template}
	if data == nil {
		return out
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return out
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	for k, v := range fields {
		out[k] = fmt.Sprint(v)
	}
	return out
}

var _ policies.Notifier = (*Notifier)(nil)
