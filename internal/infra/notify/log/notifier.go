package log

import (
	"context"
	"log/slog"

	"stayloop/internal/app/policies"
)

// Notifier writes notifications to the log. Used in local and memory-mode
// deployments where no push credentials are configured.
type Notifier struct {
	Logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{Logger: logger}
}

func (n *Notifier) Send(ctx context.Context, to string, template string, data any) error {
	n.Logger.Info("notification", "to", to, "template", template, "data", data)
	return nil
}

var _ policies.Notifier = (*Notifier)(nil)
