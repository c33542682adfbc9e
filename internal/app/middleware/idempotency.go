package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
)

// IdempotentCommand marks a command whose outcome should be stored and
// replayed when the same key is dispatched again. ResultPrototype must
// return a pointer to a zero value of the handler's result type.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// IdempotencyRecord is the stored outcome of one keyed dispatch. Either
// Payload or Error is set, never both. ErrorKind and ErrorRule keep the
// fault classification so a replayed failure maps to the same HTTP status
// as the original one.
type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  string
	ErrorRule  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

// ResultCodec serializes handler results for storage. The default is JSON.
type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency short-circuits repeated dispatches of the same command key.
// Failed outcomes are recorded too, so a retry of a rejected command gets
// the original error instead of a second execution.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			keyed, ok := cmd.(IdempotentCommand)
			if !ok || keyed.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}

			key := keyed.IdempotencyKey()
			if rec, found, err := store.Get(ctx, key); err != nil {
				return nil, err
			} else if found {
				return replay(codec, keyed, rec)
			}

			result, err := nextFn(ctx, cmd)
			if saveErr := persistOutcome(ctx, store, codec, key, result, err); saveErr != nil {
				if err != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, saveErr
			}
			return result, err
		})
	}
}

func replay(codec ResultCodec, cmd IdempotentCommand, rec IdempotencyRecord) (any, error) {
	if rec.ErrorKind != "" {
		return nil, &fault.Fault{Kind: fault.Kind(rec.ErrorKind), Message: rec.Error, Rule: rec.ErrorRule}
	}
	if rec.Error != "" {
		return nil, errors.New(rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	// Prototypes are pointers; hand the filled pointer back as-is so the
	// replayed value matches the handler's original return type.
	if rv := reflect.ValueOf(proto); rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface(), nil
	}
	return proto, nil
}

func persistOutcome(ctx context.Context, store IdempotencyStore, codec ResultCodec, key string, result any, handleErr error) error {
	rec := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
	if handleErr != nil {
		if f, ok := fault.As(handleErr); ok {
			rec.Error = f.Message
			rec.ErrorKind = string(f.Kind)
			rec.ErrorRule = f.Rule
		} else {
			rec.Error = handleErr.Error()
		}
		return store.Save(ctx, rec)
	}
	if result != nil {
		payload, err := codec.Encode(result)
		if err != nil {
			return err
		}
		rec.Payload = payload
	}
	return store.Save(ctx, rec)
}
