package services

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func TestMood_Record(t *testing.T) {
	e := newEnv(t)
	svc := NewMoodService(e.queue, e.clock.Now)
	ctx := context.Background()

	entry, err := svc.Record(ctx, "u1", "  Calm ", "after a walk")
	require.NoError(t, err)
	assert.Equal(t, model.OpUpdateMood, entry.Operation)
	assert.Equal(t, "calm", entry.Payload["mood"])

	_, err = svc.Record(ctx, "u1", "", "")
	assert.True(t, IsInvalidArgument(err))
	_, err = svc.Record(ctx, "u1", "happy", strings.Repeat("x", maxMoodNote+1))
	assert.True(t, IsInvalidArgument(err))
}

func TestAchievements_UnlockIsIdempotent(t *testing.T) {
	e := newEnv(t)
	svc := NewAchievementService(e.db.Achievements(), e.queue, e.clock.Now, zerolog.Nop())
	ctx := context.Background()
	var announced []model.OperationType
	e.queue.OnEnqueue(func(_ context.Context, entry *model.OutboxEntry) {
		announced = append(announced, entry.Operation)
	})

	created, err := svc.Unlock(ctx, "u1", "first-like")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Unlock(ctx, "u1", "first-like")
	require.NoError(t, err)
	assert.False(t, created)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first-like", list[0].AchievementID)

	pending, err := e.queue.ListUnsynced(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.OpUnlockAchievement, pending[0].Operation)
	assert.Equal(t, []model.OperationType{model.OpUnlockAchievement}, announced, "repeat unlocks queue nothing")
}
