package memory

import (
	"context"
	"sync"

	appoutbox "stayloop/internal/app/outbox"
)

// Outbox buffers event records in memory. Flush hands them to the optional
// sink; without one the records are dropped, which is fine for demo runs.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    func(ctx context.Context, record appoutbox.EventRecord) error
}

func NewOutbox(sink func(ctx context.Context, record appoutbox.EventRecord) error) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	drained := o.records
	o.records = nil
	o.mu.Unlock()

	if o.sink == nil {
		return nil
	}
	for _, record := range drained {
		if err := o.sink(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
