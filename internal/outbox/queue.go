// Package outbox records intended remote writes durably and drains them
// through a deliver.Deliverer.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

var (
	// ErrUnknownOperation rejects operation types outside the enumeration.
	ErrUnknownOperation = errors.New("outbox: unknown operation type")
	// ErrMissingOwner rejects entries without an owner.
	ErrMissingOwner = errors.New("outbox: owner id is required")
)

// EnqueueHook observes every entry that became pending.
type EnqueueHook func(ctx context.Context, e *model.OutboxEntry)

// Queue is the producer/consumer facade over the outbox table.
type Queue struct {
	store store.Outbox
	now   func() time.Time

	mu    sync.RWMutex
	hooks []EnqueueHook
}

// NewQueue creates a Queue; now defaults to time.Now.
func NewQueue(st store.Outbox, now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{store: st, now: now}
}

// Enqueue appends an immutable pending entry. It never touches the network.
func (q *Queue) Enqueue(ctx context.Context, ownerID string, op model.OperationType, payload map[string]interface{}) (*model.OutboxEntry, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	if !op.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	// copy so later caller mutations cannot reach the stored entry
	p := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		p[k] = v
	}
	e, err := q.store.Enqueue(ctx, &model.OutboxEntry{
		OwnerID:   ownerID,
		Operation: op,
		Payload:   p,
		CreatedAt: q.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("outbox enqueue: %w", err)
	}
	q.Recorded(ctx, e)
	return e, nil
}

// OnEnqueue registers h for every entry that becomes pending.
func (q *Queue) OnEnqueue(h EnqueueHook) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.hooks = append(q.hooks, h)
}

// Recorded announces e as pending. Enqueue calls it; stores that write an
// outbox row inside their own transaction call it after commit.
func (q *Queue) Recorded(ctx context.Context, e *model.OutboxEntry) {
	if e == nil {
		return
	}
	pendingGauge.Inc()
	q.mu.RLock()
	hooks := q.hooks
	q.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, e)
	}
}

// ListUnsynced returns pending entries ordered by CreatedAt then ID. An
// empty ownerID lists every owner; limit <= 0 means no limit.
func (q *Queue) ListUnsynced(ctx context.Context, ownerID string, limit int) ([]*model.OutboxEntry, error) {
	out, err := q.store.ListUnsynced(ctx, model.ListUnsyncedRequest{OwnerID: ownerID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("outbox list: %w", err)
	}
	return out, nil
}

// listExcluding returns pending entries of every owner not in exclude.
func (q *Queue) listExcluding(ctx context.Context, exclude []string, limit int) ([]*model.OutboxEntry, error) {
	out, err := q.store.ListUnsynced(ctx, model.ListUnsyncedRequest{Limit: limit, ExcludeOwners: exclude})
	if err != nil {
		return nil, fmt.Errorf("outbox list: %w", err)
	}
	return out, nil
}

// MarkSynced flips the given entries to synced. Already synced or unknown ids are ignored.
func (q *Queue) MarkSynced(ctx context.Context, ids []int64) (int64, error) {
	n, err := q.store.MarkSynced(ctx, ids, q.now())
	if err != nil {
		return 0, fmt.Errorf("outbox mark synced: %w", err)
	}
	pendingGauge.Sub(float64(n))
	return n, nil
}

// PendingCount returns how many entries still wait for delivery.
func (q *Queue) PendingCount(ctx context.Context) (int64, error) {
	n, err := q.store.PendingCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("outbox count: %w", err)
	}
	pendingGauge.Set(float64(n))
	return n, nil
}
