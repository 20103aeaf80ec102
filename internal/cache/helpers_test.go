package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/memcache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store/sqlite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func openSQLite(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.OpenStore(context.Background(), filepath.Join(t.TempDir(), "orbit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var recPolicy = Policy{
	Domain:        model.DomainRecommendations,
	TTL:           time.Hour,
	Degraded:      24 * time.Hour,
	SchemaVersion: 1,
}

type harness struct {
	db    *sqlite.Store
	clock *fakeClock
	conn  *health.StaticConnectivity
	store *Store[model.Recommendations]
	tier  *Tiered[model.Recommendations]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{db: openSQLite(t), clock: newFakeClock(), conn: health.NewStaticConnectivity(true)}
	h.store = NewStore[model.Recommendations](h.db.Cache(), recPolicy, h.clock.Now, zerolog.Nop())
	h.tier = h.newTier()
	return h
}

// newTier returns a Tiered over the same persistent store with an empty memory tier.
func (h *harness) newTier() *Tiered[model.Recommendations] {
	return NewTiered(h.store, memcache.New[model.Recommendations](16, time.Hour), h.conn, zerolog.Nop())
}

type countingFetch struct {
	mu    sync.Mutex
	calls int
	val   model.Recommendations
	err   error
}

func (f *countingFetch) Fetch(context.Context) (model.Recommendations, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.val, f.err
}

func (f *countingFetch) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
