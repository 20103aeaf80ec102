package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/memcache"
)

// FetchFunc loads a fresh value from the remote source. It owns its timeout policy.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result annotates a lookup with where the value came from.
type Result[T any] struct {
	Value      T
	FromCache  bool
	FromMemory bool
	// Offline is set when the value was served from the degraded window.
	Offline bool
	// Stale is set when a refresh failed online and the caller opted into old data.
	Stale bool
	// Age is how old the served data is.
	Age time.Duration
	// RefreshErr holds the fetch failure behind a Stale result.
	RefreshErr error
}

type lookupOptions struct {
	staleOnError bool
}

// LookupOption tunes a single Lookup call.
type LookupOption func(*lookupOptions)

// WithStaleOnError lets an online fetch failure fall back to data within the
// degraded window. The failure is reported in Result.RefreshErr.
func WithStaleOnError() LookupOption {
	return func(o *lookupOptions) { o.staleOnError = true }
}

// Tiered orchestrates memory, persistent store and remote fetch for one domain.
type Tiered[T any] struct {
	store *Store[T]
	mem   *memcache.Cache[T]
	conn  health.Connectivity
	group singleflight.Group
	log   zerolog.Logger
}

// NewTiered wires the three tiers. mem may be shared only by lookups of the same domain.
func NewTiered[T any](st *Store[T], mem *memcache.Cache[T], conn health.Connectivity, log zerolog.Logger) *Tiered[T] {
	return &Tiered[T]{
		store: st,
		mem:   mem,
		conn:  conn,
		log:   log.With().Str("domain", string(st.policy.Domain)).Logger(),
	}
}

// Store exposes the persistent tier (sweeps, direct reads).
func (t *Tiered[T]) Store() *Store[T] { return t.store }

func (t *Tiered[T]) domain() string { return string(t.store.policy.Domain) }

// Lookup resolves key for ownerID: memory, then the persistent tier, then fetch
// when online; the degraded window when offline.
func (t *Tiered[T]) Lookup(ctx context.Context, ownerID, key string, fetch FetchFunc[T], opts ...LookupOption) (Result[T], error) {
	var o lookupOptions
	for _, opt := range opts {
		opt(&o)
	}
	key = canonicalKey(key)
	now := t.store.now()
	online := t.conn.IsOnline()

	if it, ok := t.mem.Get(key); ok && t.memUsable(it, now, online) {
		lookupsTotal.WithLabelValues(t.domain(), outcomeMemory).Inc()
		return Result[T]{
			Value:      it.Value,
			FromCache:  true,
			FromMemory: true,
			Offline:    !online,
			Age:        age(now, it.CreatedAt),
		}, nil
	}

	if !online {
		return t.lookupOffline(ctx, key, now)
	}

	cached, err := t.store.Load(ctx, key)
	if err != nil {
		return Result[T]{}, err
	}
	if cached != nil && now.Before(cached.ExpiresAt) {
		t.backfill(key, cached)
		lookupsTotal.WithLabelValues(t.domain(), outcomePersistent).Inc()
		return Result[T]{Value: cached.Value, FromCache: true, Age: age(now, cached.CreatedAt)}, nil
	}

	fresh, err := t.fetch(ctx, ownerID, key, fetch)
	if err == nil {
		lookupsTotal.WithLabelValues(t.domain(), outcomeFetched).Inc()
		return Result[T]{Value: fresh.Value}, nil
	}
	if IsStorageError(err) || !o.staleOnError {
		lookupsTotal.WithLabelValues(t.domain(), outcomeFetchFailed).Inc()
		return Result[T]{}, err
	}
	if cached != nil && now.Sub(cached.CreatedAt) < t.store.policy.Degraded {
		lookupsTotal.WithLabelValues(t.domain(), outcomeStaleOnError).Inc()
		return Result[T]{
			Value:      cached.Value,
			FromCache:  true,
			Stale:      true,
			Age:        age(now, cached.CreatedAt),
			RefreshErr: err,
		}, nil
	}
	lookupsTotal.WithLabelValues(t.domain(), outcomeFetchFailed).Inc()
	return Result[T]{}, err
}

func (t *Tiered[T]) lookupOffline(ctx context.Context, key string, now time.Time) (Result[T], error) {
	cached, err := t.store.Load(ctx, key)
	if err != nil {
		return Result[T]{}, err
	}
	if cached == nil || now.Sub(cached.CreatedAt) >= t.store.policy.Degraded {
		lookupsTotal.WithLabelValues(t.domain(), outcomeOfflineEmpty).Inc()
		return Result[T]{}, ErrOfflineNoCache
	}
	t.backfill(key, cached)
	lookupsTotal.WithLabelValues(t.domain(), outcomeOfflineStale).Inc()
	return Result[T]{
		Value:     cached.Value,
		FromCache: true,
		Offline:   true,
		Age:       age(now, cached.CreatedAt),
	}, nil
}

// fetch runs the remote call once per key across concurrent callers and
// writes the result through both tiers.
func (t *Tiered[T]) fetch(ctx context.Context, ownerID, key string, fetch FetchFunc[T]) (*Cached[T], error) {
	v, err, shared := t.group.Do(key, func() (interface{}, error) {
		// a flight that finished just before this one may already have written the key
		if c, err := t.store.Load(ctx, key); err == nil && c != nil && t.store.now().Before(c.ExpiresAt) {
			t.backfill(key, c)
			return c, nil
		}
		val, err := fetch(ctx)
		if err != nil {
			fetchesTotal.WithLabelValues(t.domain(), "error").Inc()
			return nil, &RemoteFetchError{Domain: t.store.policy.Domain, Key: key, Err: err}
		}
		fetchesTotal.WithLabelValues(t.domain(), "ok").Inc()
		c, err := t.store.put(ctx, ownerID, key, val)
		if err != nil {
			t.log.Error().Stack().Err(err).Str("key", key).Msg("write-back after fetch failed")
			return nil, err
		}
		t.backfill(key, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		t.log.Debug().Str("key", key).Msg("fetch shared with concurrent lookup")
	}
	return v.(*Cached[T]), nil
}

func (t *Tiered[T]) backfill(key string, c *Cached[T]) {
	t.mem.Set(key, memcache.Item[T]{Value: c.Value, OwnerID: c.OwnerID, CreatedAt: c.CreatedAt})
}

func (t *Tiered[T]) memUsable(it memcache.Item[T], now time.Time, online bool) bool {
	if online {
		return now.Before(it.CreatedAt.Add(t.store.policy.TTL))
	}
	return now.Sub(it.CreatedAt) < t.store.policy.Degraded
}

// Put writes v through both tiers without a fetch (locally produced data).
func (t *Tiered[T]) Put(ctx context.Context, ownerID, key string, v T) error {
	key = canonicalKey(key)
	c, err := t.store.put(ctx, ownerID, key, v)
	if err != nil {
		return err
	}
	t.backfill(key, c)
	return nil
}

// Invalidate drops key from both tiers.
func (t *Tiered[T]) Invalidate(ctx context.Context, key string) error {
	key = canonicalKey(key)
	t.mem.Delete(key)
	if err := t.store.entries.Delete(ctx, t.store.policy.Domain, key); err != nil {
		return &StorageError{Op: "cache delete", Err: err}
	}
	return nil
}

// Clear removes every entry of ownerID from both tiers.
func (t *Tiered[T]) Clear(ctx context.Context, ownerID string) (int64, error) {
	t.mem.DeleteOwner(ownerID)
	return t.store.Clear(ctx, ownerID)
}

func age(now, created time.Time) time.Duration {
	if now.Before(created) {
		return 0
	}
	return now.Sub(created)
}

// Policy returns the domain policy.
func (t *Tiered[T]) Policy() Policy { return t.store.policy }

// SweepExpired sweeps the persistent tier. The memory tier expires on its own.
func (t *Tiered[T]) SweepExpired(ctx context.Context) (int64, error) {
	return t.store.SweepExpired(ctx)
}
