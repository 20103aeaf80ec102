package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func newInterestService(e *env) *InterestService {
	return NewInterestService(e.db.Interests(), e.queue, e.clock.Now, zerolog.Nop())
}

func TestInterests_GetAbsentIsNil(t *testing.T) {
	svc := newInterestService(newEnv(t))
	set, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, set)

	_, err = svc.Get(context.Background(), "")
	assert.True(t, IsInvalidArgument(err))
}

func TestInterests_VersionMonotonicity(t *testing.T) {
	e := newEnv(t)
	svc := newInterestService(e)
	ctx := context.Background()
	var announced []int64
	e.queue.OnEnqueue(func(_ context.Context, entry *model.OutboxEntry) {
		announced = append(announced, entry.ID)
	})

	for i := int64(1); i <= 5; i++ {
		e.clock.Advance(time.Minute)
		set, entry, err := svc.Save(ctx, "u1", []string{"jazz", "lofi"})
		require.NoError(t, err)
		assert.Equal(t, i, set.Version)
		assert.True(t, set.NeedsSync)
		assert.Equal(t, model.OpUpsertInterests, entry.Operation)

		got, err := svc.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, i, got.Version)
		assert.True(t, got.NeedsSync)
	}

	n, err := e.queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n, "one outbox entry per save")
	assert.Len(t, announced, 5, "paired outbox rows are announced to the queue")
}

func TestInterests_MarkSyncedOnlyForCurrentVersion(t *testing.T) {
	e := newEnv(t)
	svc := newInterestService(e)
	ctx := context.Background()

	_, _, err := svc.Save(ctx, "u1", []string{"jazz"})
	require.NoError(t, err)
	_, _, err = svc.Save(ctx, "u1", []string{"jazz", "house"})
	require.NoError(t, err)

	ok, err := svc.MarkSynced(ctx, "u1", 1, e.clock.Now())
	require.NoError(t, err)
	assert.False(t, ok, "a newer local write keeps needs_sync")
	got, _ := svc.Get(ctx, "u1")
	assert.True(t, got.NeedsSync)

	ok, err = svc.MarkSynced(ctx, "u1", 2, e.clock.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	got, _ = svc.Get(ctx, "u1")
	assert.False(t, got.NeedsSync)
	require.NotNil(t, got.ServerTimestamp)
}

func TestInterests_ConfirmDeliveryHandlesStoredPayload(t *testing.T) {
	e := newEnv(t)
	svc := newInterestService(e)
	ctx := context.Background()

	_, _, err := svc.Save(ctx, "u1", []string{"ambient"})
	require.NoError(t, err)

	// entries read back from the outbox carry JSON numbers
	pending, err := e.queue.ListUnsynced(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	serverTS := e.clock.Now().Add(time.Second)
	require.NoError(t, svc.ConfirmDelivery(ctx, pending[0], deliver.Receipt{ServerTimestamp: serverTS}))

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.NeedsSync)
	require.NotNil(t, got.ServerTimestamp)
	assert.True(t, got.ServerTimestamp.Equal(serverTS))
}

func TestInterests_ConfirmDeliveryRejectsMissingVersion(t *testing.T) {
	svc := newInterestService(newEnv(t))
	err := svc.ConfirmDelivery(context.Background(), &model.OutboxEntry{
		ID: 7, OwnerID: "u1", Operation: model.OpUpsertInterests, Payload: map[string]interface{}{},
	}, deliver.Receipt{})
	assert.Error(t, err)
}

func TestInterests_ApplyRemoteLastWriteWins(t *testing.T) {
	e := newEnv(t)
	svc := newInterestService(e)
	ctx := context.Background()

	_, _, err := svc.Save(ctx, "u1", []string{"jazz"})
	require.NoError(t, err)
	_, _, err = svc.Save(ctx, "u1", []string{"jazz", "soul"})
	require.NoError(t, err)

	applied, err := svc.ApplyRemote(ctx, &model.InterestSet{OwnerID: "u1", Interests: []string{"metal"}, Version: 2})
	require.NoError(t, err)
	assert.False(t, applied, "equal version is not newer")

	applied, err = svc.ApplyRemote(ctx, &model.InterestSet{OwnerID: "u1", Interests: []string{"metal"}, Version: 3, LastModified: e.clock.Now()})
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"metal"}, got.Interests)
	assert.EqualValues(t, 3, got.Version)
	assert.False(t, got.NeedsSync)

	// the next local save continues from the remote version
	set, _, err := svc.Save(ctx, "u1", []string{"metal", "punk"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, set.Version)
}

func TestCleanInterests(t *testing.T) {
	assert.Equal(t, []string{"Jazz", "lo fi"}, cleanInterests([]string{" Jazz ", "", "jazz", "lo fi", "  "}))
	assert.Empty(t, cleanInterests(nil))
}
