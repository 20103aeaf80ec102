package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/memcache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/store/sqlite"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	db    *sqlite.Store
	clock *testClock
	conn  *health.StaticConnectivity
	queue *outbox.Queue
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sqlite.OpenStore(context.Background(), filepath.Join(t.TempDir(), "orbit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	clock := &testClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	return &env{
		db:    db,
		clock: clock,
		conn:  health.NewStaticConnectivity(true),
		queue: outbox.NewQueue(db.Outbox(), clock.Now),
	}
}

func newTier[T any](e *env, domain model.Domain) *cache.Tiered[T] {
	p := cache.DefaultPolicies()[domain]
	st := cache.NewStore[T](e.db.Cache(), p, e.clock.Now, zerolog.Nop())
	return cache.NewTiered(st, memcache.New[T](32, time.Hour), e.conn, zerolog.Nop())
}

// fakeSource counts remote calls for every domain.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *fakeSource) hit(kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[kind]++
	return f.err
}

func (f *fakeSource) Calls(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeSource) FetchRecommendations(_ context.Context, query string) (model.Recommendations, error) {
	if err := f.hit("recommendations"); err != nil {
		return model.Recommendations{}, err
	}
	return model.Recommendations{Query: query, Suggestions: []string{query + " mix"}}, nil
}

func (f *fakeSource) FetchWeather(_ context.Context, lat, lon float64) (model.Weather, error) {
	if err := f.hit("weather"); err != nil {
		return model.Weather{}, err
	}
	return model.Weather{Latitude: lat, Longitude: lon, Condition: "rain", TemperatureC: 11.5}, nil
}

func (f *fakeSource) FetchLibrarySection(_ context.Context, ownerID, sectionID string) (model.LibrarySection, error) {
	if err := f.hit("library"); err != nil {
		return model.LibrarySection{}, err
	}
	return model.LibrarySection{OwnerID: ownerID, SectionID: sectionID, Title: sectionID}, nil
}
