package middleware

import (
	"context"
	"testing"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
)

type stubResult struct {
	Value string `json:"value"`
}

type stubCommand struct {
	idemKey string
}

func (stubCommand) Key() string              { return "stub.command" }
func (c stubCommand) IdempotencyKey() string { return c.idemKey }
func (stubCommand) ResultPrototype() any     { return &stubResult{} }

type mapStore struct {
	records map[string]IdempotencyRecord
}

func newMapStore() *mapStore {
	return &mapStore{records: make(map[string]IdempotencyRecord)}
}

func (s *mapStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

func TestIdempotencyReplaysResult(t *testing.T) {
	store := newMapStore()
	calls := 0
	bus := Idempotency(store, nil)(commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return &stubResult{Value: "first"}, nil
	}))

	cmd := stubCommand{idemKey: "key-1"}
	if _, err := bus.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	result, err := bus.Dispatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	replayed, ok := result.(*stubResult)
	if !ok || replayed.Value != "first" {
		t.Fatalf("replayed result: %#v", result)
	}
	if calls != 1 {
		t.Fatalf("handler calls: %d", calls)
	}
}

func TestIdempotencyReplaysFaultKind(t *testing.T) {
	store := newMapStore()
	calls := 0
	bus := Idempotency(store, nil)(commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, fault.Conflict("dates were taken by another confirmed booking")
	}))

	cmd := stubCommand{idemKey: "key-2"}
	if _, err := bus.Dispatch(context.Background(), cmd); err == nil {
		t.Fatal("expected first dispatch to fail")
	}
	_, err := bus.Dispatch(context.Background(), cmd)
	if err == nil {
		t.Fatal("expected replayed failure")
	}
	if calls != 1 {
		t.Fatalf("handler calls: %d", calls)
	}
	if kind := fault.KindOf(err); kind != fault.KindConflict {
		t.Fatalf("replayed kind = %s, want %s", kind, fault.KindConflict)
	}
	f, ok := fault.As(err)
	if !ok || f.Message != "dates were taken by another confirmed booking" {
		t.Fatalf("replayed fault: %+v", f)
	}
}

func TestIdempotencyReplaysValidationRule(t *testing.T) {
	store := newMapStore()
	bus := Idempotency(store, nil)(commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		return nil, fault.Validation("guests.max", "party exceeds listing capacity")
	}))

	cmd := stubCommand{idemKey: "key-3"}
	_, _ = bus.Dispatch(context.Background(), cmd)
	_, err := bus.Dispatch(context.Background(), cmd)
	f, ok := fault.As(err)
	if !ok {
		t.Fatalf("replayed error is not a fault: %v", err)
	}
	if f.Kind != fault.KindValidation || f.Rule != "guests.max" {
		t.Fatalf("replayed fault: %+v", f)
	}
}

func TestIdempotencyPlainErrorStaysOpaque(t *testing.T) {
	store := newMapStore()
	bus := Idempotency(store, nil)(commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		return nil, context.DeadlineExceeded
	}))

	cmd := stubCommand{idemKey: "key-4"}
	_, _ = bus.Dispatch(context.Background(), cmd)
	_, err := bus.Dispatch(context.Background(), cmd)
	if err == nil {
		t.Fatal("expected replayed failure")
	}
	if _, ok := fault.As(err); ok {
		t.Fatalf("plain error replayed as fault: %v", err)
	}
	if kind := fault.KindOf(err); kind != fault.KindInternal {
		t.Fatalf("replayed kind = %s", kind)
	}
}
