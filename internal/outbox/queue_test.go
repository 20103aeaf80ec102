package outbox

import (
	"context"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store/sqlite"
)

// tickClock advances one second per reading.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newQueue(t *testing.T) (*Queue, *sqlite.Store) {
	t.Helper()
	db, err := sqlite.OpenStore(context.Background(), filepath.Join(t.TempDir(), "orbit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewQueue(db.Outbox(), newTickClock().Now), db
}

func TestQueue_EnqueueValidates(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "", model.OpLikeTrack, nil)
	assert.ErrorIs(t, err, ErrMissingOwner)

	_, err = q.Enqueue(ctx, "u1", "teleport", nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)

	e, err := q.Enqueue(ctx, "u1", model.OpLikeTrack, map[string]interface{}{"trackId": "t1"})
	require.NoError(t, err)
	assert.Equal(t, model.SyncPending, e.Status)
	assert.NotEmpty(t, e.DeliveryKey)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestQueue_RecordedTracksPendingAndRunsHooks(t *testing.T) {
	q, db := newQueue(t)
	ctx := context.Background()
	_, err := q.PendingCount(ctx)
	require.NoError(t, err)
	require.Zero(t, testutil.ToFloat64(pendingGauge))

	var seen []string
	q.OnEnqueue(func(_ context.Context, e *model.OutboxEntry) { seen = append(seen, e.OwnerID) })

	_, err = q.Enqueue(ctx, "u1", model.OpLikeTrack, nil)
	require.NoError(t, err)
	// a row written by a store transaction, outside Enqueue
	paired, err := db.Outbox().Enqueue(ctx, &model.OutboxEntry{OwnerID: "u2", Operation: model.OpUnlockAchievement})
	require.NoError(t, err)
	q.Recorded(ctx, paired)

	assert.Equal(t, []string{"u1", "u2"}, seen)
	assert.Equal(t, float64(2), testutil.ToFloat64(pendingGauge))

	n, err := q.MarkSynced(ctx, []int64{paired.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	assert.Equal(t, float64(1), testutil.ToFloat64(pendingGauge))
}

func TestQueue_PayloadIsImmutable(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	payload := map[string]interface{}{"mood": "calm"}

	_, err := q.Enqueue(ctx, "u1", model.OpUpdateMood, payload)
	require.NoError(t, err)
	payload["mood"] = "angry"

	lst, err := q.ListUnsynced(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, lst, 1)
	assert.Equal(t, "calm", lst[0].Payload["mood"])
}

// Random interleavings of enqueue and mark-synced: the pending list is always
// exactly the unsynced entries in creation order.
func TestQueue_ListUnsyncedMatchesModel(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	owners := []string{"u1", "u2", "u3"}

	var pending []int64
	for step := 0; step < 60; step++ {
		if len(pending) > 0 && rng.Intn(3) == 0 {
			i := rng.Intn(len(pending))
			id := pending[i]
			n, err := q.MarkSynced(ctx, []int64{id})
			require.NoError(t, err)
			require.EqualValues(t, 1, n)
			pending = append(pending[:i], pending[i+1:]...)
			continue
		}
		e, err := q.Enqueue(ctx, owners[rng.Intn(len(owners))], model.KnownOperations[rng.Intn(len(model.KnownOperations))], nil)
		require.NoError(t, err)
		pending = append(pending, e.ID)
	}

	lst, err := q.ListUnsynced(ctx, "", 0)
	require.NoError(t, err)
	got := make([]int64, 0, len(lst))
	for i, e := range lst {
		got = append(got, e.ID)
		if i > 0 {
			assert.False(t, e.CreatedAt.Before(lst[i-1].CreatedAt))
		}
	}
	assert.Equal(t, pending, got)

	n, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(pending), n)
}

func TestQueue_MarkSyncedIsIdempotent(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	e, err := q.Enqueue(ctx, "u1", model.OpLogActivity, nil)
	require.NoError(t, err)

	n, err := q.MarkSynced(ctx, []int64{e.ID, 9999})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = q.MarkSynced(ctx, []int64{e.ID})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = q.MarkSynced(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
