package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// fakeDeliverer records calls and fails according to failFor.
type fakeDeliverer struct {
	mu        sync.Mutex
	calls     []int64
	delivered []int64
	failFor   func(e *model.OutboxEntry, attempt int) error
	attempts  map[int64]int
}

func (f *fakeDeliverer) Deliver(_ context.Context, e *model.OutboxEntry) (deliver.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempts == nil {
		f.attempts = map[int64]int{}
	}
	f.attempts[e.ID]++
	f.calls = append(f.calls, e.ID)
	if f.failFor != nil {
		if err := f.failFor(e, f.attempts[e.ID]); err != nil {
			return deliver.Receipt{}, err
		}
	}
	f.delivered = append(f.delivered, e.ID)
	return deliver.Receipt{ServerTimestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeDeliverer) Attempts(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[id]
}

func testConfig() Config {
	return Config{BatchSize: 50, Interval: 10 * time.Millisecond, MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestWorker_DeliversAndRunsHooks(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	e1, err := q.Enqueue(ctx, "u1", model.OpUpsertInterests, map[string]interface{}{"version": 1})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "u1", model.OpLikeTrack, nil)
	require.NoError(t, err)

	d := &fakeDeliverer{}
	w := NewWorker(q, d, testConfig(), zerolog.Nop())
	var hooked []int64
	w.OnSynced(model.OpUpsertInterests, func(_ context.Context, e *model.OutboxEntry, r deliver.Receipt) error {
		hooked = append(hooked, e.ID)
		assert.False(t, r.ServerTimestamp.IsZero())
		return nil
	})

	st, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Delivered: 2}, st)
	assert.Equal(t, []int64{e1.ID}, hooked)

	n, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorker_PerOwnerFIFO(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	a1, _ := q.Enqueue(ctx, "u1", model.OpLikeTrack, nil)
	b1, _ := q.Enqueue(ctx, "u2", model.OpLikeTrack, nil)
	a2, _ := q.Enqueue(ctx, "u1", model.OpUpdateMood, nil)
	b2, _ := q.Enqueue(ctx, "u2", model.OpUpdateMood, nil)

	down := true
	d := &fakeDeliverer{failFor: func(e *model.OutboxEntry, _ int) error {
		if down && e.OwnerID == "u1" {
			return errors.New("503")
		}
		return nil
	}}
	w := NewWorker(q, d, testConfig(), zerolog.Nop())

	st, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Delivered: 2, Failed: 1, Skipped: 1}, st)
	assert.Equal(t, []int64{b1.ID, b2.ID}, d.delivered)
	assert.Equal(t, 3, d.Attempts(a1.ID), "transient failures are retried up to MaxAttempts")
	assert.Zero(t, d.Attempts(a2.ID), "later entry of a failed owner must wait")

	down = false
	st, err = w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Delivered: 2}, st)
	assert.Equal(t, []int64{b1.ID, b2.ID, a1.ID, a2.ID}, d.delivered)
}

func TestWorker_RetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	e, _ := q.Enqueue(ctx, "u1", model.OpLogActivity, nil)

	d := &fakeDeliverer{failFor: func(_ *model.OutboxEntry, attempt int) error {
		if attempt < 3 {
			return errors.New("timeout")
		}
		return nil
	}}
	st, err := NewWorker(q, d, testConfig(), zerolog.Nop()).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Delivered)
	assert.Equal(t, 3, d.Attempts(e.ID))
}

func TestWorker_PermanentFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	e, _ := q.Enqueue(ctx, "u1", model.OpLogActivity, nil)

	d := &fakeDeliverer{failFor: func(*model.OutboxEntry, int) error {
		return deliver.NewPermanentError("status 422", nil)
	}}
	st, err := NewWorker(q, d, testConfig(), zerolog.Nop()).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 1, d.Attempts(e.ID))

	pending, err := q.ListUnsynced(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed entries stay pending")
}

func TestWorker_RejectedOwnerDoesNotStarveOthers(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	var rejected []int64
	for i := 0; i < 3; i++ {
		e, err := q.Enqueue(ctx, "u-rejected", model.OpLikeTrack, nil)
		require.NoError(t, err)
		rejected = append(rejected, e.ID)
	}
	ok, err := q.Enqueue(ctx, "u-ok", model.OpLikeTrack, nil)
	require.NoError(t, err)

	d := &fakeDeliverer{failFor: func(e *model.OutboxEntry, _ int) error {
		if e.OwnerID == "u-rejected" {
			return deliver.NewPermanentError("status 422", nil)
		}
		return nil
	}}
	cfg := testConfig()
	cfg.BatchSize = 3
	w := NewWorker(q, d, cfg, zerolog.Nop())

	st, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Delivered: 1, Failed: 1, Skipped: 2}, st)
	assert.Equal(t, []int64{ok.ID}, d.delivered)

	for i := 0; i < 3; i++ {
		st, err = w.ProcessOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{Skipped: 3}, st)
	}
	assert.Equal(t, 1, d.Attempts(rejected[0]), "a rejected entry is not resent")
	assert.Zero(t, d.Attempts(rejected[1]))

	pending, err := q.ListUnsynced(ctx, "u-rejected", 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3, "rejected entries stay pending in order")
}

func TestWorker_BatchBudgetSpansOwners(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	for i := 0; i < 4; i++ {
		_, err := q.Enqueue(ctx, "u-down", model.OpLikeTrack, nil)
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		_, err := q.Enqueue(ctx, "u-up", model.OpLikeTrack, nil)
		require.NoError(t, err)
	}
	d := &fakeDeliverer{failFor: func(e *model.OutboxEntry, _ int) error {
		if e.OwnerID == "u-down" {
			return errors.New("503")
		}
		return nil
	}}
	cfg := testConfig()
	cfg.BatchSize = 3
	st, err := NewWorker(q, d, cfg, zerolog.Nop()).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 2, st.Delivered, "one failed attempt and two deliveries fill the batch")
}

func TestWorker_HookErrorDoesNotUnsync(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	_, _ = q.Enqueue(ctx, "u1", model.OpUnlockAchievement, nil)

	w := NewWorker(q, &fakeDeliverer{}, testConfig(), zerolog.Nop())
	w.OnSynced(model.OpUnlockAchievement, func(context.Context, *model.OutboxEntry, deliver.Receipt) error {
		return errors.New("hook failed")
	})
	st, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Delivered)

	n, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorker_DrainUsesMultipleBatches(t *testing.T) {
	ctx := context.Background()
	q, _ := newQueue(t)
	for i := 0; i < 7; i++ {
		_, err := q.Enqueue(ctx, "u1", model.OpLikeTrack, nil)
		require.NoError(t, err)
	}
	cfg := testConfig()
	cfg.BatchSize = 3

	st, err := NewWorker(q, &fakeDeliverer{}, cfg, zerolog.Nop()).Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, st.Delivered)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	q, _ := newQueue(t)
	_, err := q.Enqueue(context.Background(), "u1", model.OpLikeTrack, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d := &fakeDeliverer{}
	done := make(chan error, 1)
	go func() { done <- NewWorker(q, d, testConfig(), zerolog.Nop()).Run(ctx) }()

	require.Eventually(t, func() bool {
		n, err := q.PendingCount(context.Background())
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_RunPausesWhileOffline(t *testing.T) {
	q, _ := newQueue(t)
	_, err := q.Enqueue(context.Background(), "u1", model.OpLikeTrack, nil)
	require.NoError(t, err)

	conn := health.NewStaticConnectivity(false)
	d := &fakeDeliverer{}
	w := NewWorker(q, d, testConfig(), zerolog.Nop())
	w.PauseWhenOffline(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	n, err := q.PendingCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "nothing is delivered while offline")

	conn.SetOnline(true)
	require.Eventually(t, func() bool {
		n, err := q.PendingCount(context.Background())
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
