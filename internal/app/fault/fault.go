// Package fault carries the error taxonomy surfaced by application
// operations, so transports can map failures without string matching.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure of a primary operation.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindValidation      Kind = "VALIDATION_FAILED"
	KindConflict        Kind = "CONFLICT"
	KindPolicyViolation Kind = "POLICY_VIOLATION"
	KindInternal        Kind = "INTERNAL"
)

// Fault is an operation failure with a classified kind.
type Fault struct {
	Kind    Kind
	Message string
	Rule    string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// HTTPStatus maps the kind onto the transport contract: NotFound 404,
// Unauthorized 403, everything else client-caused 400, Internal 500.
func (f *Fault) HTTPStatus() int {
	switch f.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindValidation, KindConflict, KindPolicyViolation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(message string) *Fault {
	return &Fault{Kind: KindNotFound, Message: message}
}

func Unauthorized(message string) *Fault {
	return &Fault{Kind: KindUnauthorized, Message: message}
}

// Validation names the violated rule so callers can tell which precondition
// failed.
func Validation(rule, message string) *Fault {
	return &Fault{Kind: KindValidation, Message: message, Rule: rule}
}

func Conflict(message string) *Fault {
	return &Fault{Kind: KindConflict, Message: message}
}

func PolicyViolation(message string) *Fault {
	return &Fault{Kind: KindPolicyViolation, Message: message}
}

func Internal(message string, err error) *Fault {
	return &Fault{Kind: KindInternal, Message: message, Err: err}
}

// Wrap attaches a cause while keeping the kind.
func (f *Fault) Wrap(err error) *Fault {
	f.Err = err
	return f
}

// KindOf extracts the kind from an error chain, defaulting to Internal.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}

// As returns the Fault in the chain, if any.
func As(err error) (*Fault, bool) {
	var f *Fault
	ok := errors.As(err, &f)
	return f, ok
}
