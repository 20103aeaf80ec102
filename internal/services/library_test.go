package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func newLibrary(e *env, src *fakeSource) *LibraryService {
	return NewLibraryService(newTier[model.LibrarySection](e, model.DomainLibrary), src, e.queue, e.clock.Now, zerolog.Nop())
}

func TestLibrary_SectionsAreOwnerScoped(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{}
	svc := newLibrary(e, src)
	ctx := context.Background()

	a, err := svc.Section(ctx, "u1", "favorites")
	require.NoError(t, err)
	b, err := svc.Section(ctx, "u2", "favorites")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.Value.OwnerID)
	assert.Equal(t, "u2", b.Value.OwnerID)
	assert.Equal(t, 2, src.Calls("library"))

	// owner IDs are case-sensitive
	upper, err := svc.Section(ctx, "AbC123", SectionLiked)
	require.NoError(t, err)
	lower, err := svc.Section(ctx, "abc123", SectionLiked)
	require.NoError(t, err)
	assert.Equal(t, "AbC123", upper.Value.OwnerID)
	assert.Equal(t, "abc123", lower.Value.OwnerID)
	assert.False(t, lower.FromCache)
	assert.Equal(t, 4, src.Calls("library"))

	_, err = svc.Section(ctx, "u1", " ")
	assert.True(t, IsInvalidArgument(err))
}

func TestLibrary_LikeTrackQueuesAndInvalidates(t *testing.T) {
	e := newEnv(t)
	src := &fakeSource{}
	svc := newLibrary(e, src)
	ctx := context.Background()

	_, err := svc.Section(ctx, "u1", SectionLiked)
	require.NoError(t, err)

	entry, err := svc.LikeTrack(ctx, "u1", "trk-9")
	require.NoError(t, err)
	assert.Equal(t, model.OpLikeTrack, entry.Operation)
	assert.Equal(t, "trk-9", entry.Payload["trackId"])

	res, err := svc.Section(ctx, "u1", SectionLiked)
	require.NoError(t, err)
	assert.False(t, res.FromCache, "liked section is refetched after a like")
	assert.Equal(t, 2, src.Calls("library"))
}

func TestLibrary_LogListening(t *testing.T) {
	e := newEnv(t)
	svc := newLibrary(e, &fakeSource{})
	ctx := context.Background()

	entry, err := svc.LogListening(ctx, "u1", "trk-1", 184)
	require.NoError(t, err)
	assert.Equal(t, model.OpLogActivity, entry.Operation)

	_, err = svc.LogListening(ctx, "u1", "trk-1", -1)
	assert.True(t, IsInvalidArgument(err))
	_, err = svc.LogListening(ctx, "u1", "", 10)
	assert.True(t, IsInvalidArgument(err))
}
