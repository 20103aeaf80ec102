package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// Cached is a decoded persistent entry.
type Cached[T any] struct {
	Value     T
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is the persistent tier of one domain.
type Store[T any] struct {
	entries store.CacheEntries
	policy  Policy
	codec   Codec[T]
	now     Clock
	log     zerolog.Logger
}

// NewStore binds a domain policy to the persistent entries table.
func NewStore[T any](entries store.CacheEntries, policy Policy, now Clock, log zerolog.Logger) *Store[T] {
	if now == nil {
		now = time.Now
	}
	return &Store[T]{
		entries: entries,
		policy:  policy,
		codec:   Codec[T]{Version: policy.SchemaVersion},
		now:     now,
		log:     log.With().Str("domain", string(policy.Domain)).Logger(),
	}
}

func (s *Store[T]) Policy() Policy { return s.policy }

// Load reads and decodes the entry for key without freshness checks.
// A missing or undecodable entry yields nil, nil.
func (s *Store[T]) Load(ctx context.Context, key string) (*Cached[T], error) {
	key = canonicalKey(key)
	e, err := s.entries.Get(ctx, s.policy.Domain, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "cache get", Err: err}
	}
	v, err := s.codec.Decode(e.Payload)
	if err != nil {
		s.log.Warn().Str("key", key).Err(err).Msg("discarding undecodable cache entry")
		return nil, nil
	}
	return &Cached[T]{Value: v, OwnerID: e.OwnerID, CreatedAt: e.CreatedAt, ExpiresAt: e.ExpiresAt}, nil
}

// Get returns the value iff an entry exists and now < ExpiresAt.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	c, err := s.Load(ctx, key)
	if err != nil || c == nil {
		return zero, false, err
	}
	if !s.now().Before(c.ExpiresAt) {
		return zero, false, nil
	}
	return c.Value, true, nil
}

// GetStaleOk returns the value and its age iff now - CreatedAt < Degraded,
// regardless of the strict TTL.
func (s *Store[T]) GetStaleOk(ctx context.Context, key string) (T, time.Duration, bool, error) {
	var zero T
	c, err := s.Load(ctx, key)
	if err != nil || c == nil {
		return zero, 0, false, err
	}
	now := s.now()
	if now.Sub(c.CreatedAt) >= s.policy.Degraded {
		return zero, 0, false, nil
	}
	age := now.Sub(c.CreatedAt)
	if age < 0 {
		age = 0
	}
	return c.Value, age, true, nil
}

// Put upserts the entry with CreatedAt=now and ExpiresAt=now+TTL.
func (s *Store[T]) Put(ctx context.Context, ownerID, key string, v T) error {
	_, err := s.put(ctx, ownerID, key, v)
	return err
}

func (s *Store[T]) put(ctx context.Context, ownerID, key string, v T) (*Cached[T], error) {
	payload, err := s.codec.Encode(v)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	ttl := s.policy.TTL
	if ttl <= 0 {
		ttl = time.Millisecond
	}
	e := &model.CacheEntry{
		Domain:        s.policy.Domain,
		Key:           canonicalKey(key),
		OwnerID:       ownerID,
		Payload:       payload,
		SchemaVersion: s.policy.SchemaVersion,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := s.entries.Put(ctx, e); err != nil {
		return nil, &StorageError{Op: "cache put", Err: err}
	}
	return &Cached[T]{Value: v, OwnerID: ownerID, CreatedAt: e.CreatedAt, ExpiresAt: e.ExpiresAt}, nil
}

// SweepExpired deletes entries with now > ExpiresAt + Degraded.
func (s *Store[T]) SweepExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.policy.Degraded)
	n, err := s.entries.DeleteExpiredBefore(ctx, s.policy.Domain, cutoff)
	if err != nil {
		return 0, &StorageError{Op: "cache sweep", Err: err}
	}
	if n > 0 {
		sweptTotal.WithLabelValues(string(s.policy.Domain)).Add(float64(n))
	}
	return n, nil
}

// Clear deletes every entry of ownerID in this domain.
func (s *Store[T]) Clear(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.entries.DeleteOwner(ctx, s.policy.Domain, ownerID)
	if err != nil {
		return 0, &StorageError{Op: "cache clear", Err: err}
	}
	return n, nil
}
