package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func newRecommendations(e *env, src *fakeSource) *RecommendationService {
	return NewRecommendationService(newTier[model.Recommendations](e, model.DomainRecommendations), src)
}

func TestRecommendations_OnlineFreshFetch(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{}
	svc := newRecommendations(e, src)
	ctx := context.Background()

	res, err := svc.Get(ctx, "u1", "lofi beats")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "lofi beats", res.Value.Query)
	assert.Equal(t, 1, src.Calls("recommendations"))

	e.clock.Advance(10 * time.Minute)
	res, err = svc.Get(ctx, "u1", "  LoFi   Beats ")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.True(t, res.FromMemory)
	assert.Equal(t, 1, src.Calls("recommendations"))
}

func TestRecommendations_OfflineWithinWindow(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{}
	svc := newRecommendations(e, src)
	ctx := context.Background()

	_, err := svc.Get(ctx, "u1", "lofi beats")
	require.NoError(t, err)

	e.clock.Advance(2 * time.Hour)
	e.conn.SetOnline(false)

	// a fresh service has an empty memory tier, forcing the persistent path
	res, err := newRecommendations(e, src).Get(ctx, "u1", "lofi beats")
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.True(t, res.FromCache)
	assert.Equal(t, 2*time.Hour, res.Age)
	assert.Equal(t, 1, src.Calls("recommendations"))
}

func TestRecommendations_OfflinePastWindow(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{}
	svc := newRecommendations(e, src)
	ctx := context.Background()

	_, err := svc.Get(ctx, "u1", "lofi beats")
	require.NoError(t, err)

	e.clock.Advance(30 * time.Hour)
	e.conn.SetOnline(false)

	res, err := svc.Get(ctx, "u1", "lofi beats")
	assert.ErrorIs(t, err, cache.ErrOfflineNoCache)
	assert.Empty(t, res.Value.Query)
}

func TestRecommendations_OnlineFailureIsExplicit(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{err: errors.New("upstream 500")}
	svc := newRecommendations(e, src)

	_, err := svc.Get(context.Background(), "u1", "drum and bass")
	require.Error(t, err)
	assert.True(t, cache.IsRemoteFetchError(err))
}

func TestRecommendations_EmptyQuery(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{}
	_, err := newRecommendations(e, src).Get(context.Background(), "u1", "   ")
	assert.True(t, IsInvalidArgument(err))
	assert.Zero(t, src.Calls("recommendations"))
}
