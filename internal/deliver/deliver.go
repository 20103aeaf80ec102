// Package deliver defines how outbox entries reach the remote backend.
package deliver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// Receipt is the remote's confirmation of one delivery.
type Receipt struct {
	ServerTimestamp time.Time
}

// Deliverer pushes one outbox entry to the remote. Delivery is at-least-once:
// implementations must let the remote dedupe on DeliveryKey.
type Deliverer interface {
	Deliver(ctx context.Context, e *model.OutboxEntry) (Receipt, error)
}

// Func adapts a function to Deliverer.
type Func func(ctx context.Context, e *model.OutboxEntry) (Receipt, error)

func (f Func) Deliver(ctx context.Context, e *model.OutboxEntry) (Receipt, error) { return f(ctx, e) }

// PermanentError marks a rejection that retrying cannot fix (bad payload,
// unknown operation, authorization).
type PermanentError struct {
	Reason string
	Err    error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("permanent delivery failure: %s", e.Reason)
	}
	return fmt.Sprintf("permanent delivery failure: %s: %v", e.Reason, e.Err)
}

func (e PermanentError) Unwrap() error { return e.Err }

// NewPermanentError constructs PermanentError
func NewPermanentError(reason string, err error) PermanentError {
	return PermanentError{Reason: reason, Err: err}
}

// IsPermanent checks if err (or anything it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var pe PermanentError
	return errors.As(err, &pe)
}
