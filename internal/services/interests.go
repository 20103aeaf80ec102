package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// InterestService is the versioned repository of a user's interest tags.
// Every local save bumps the version and queues an upsert_interests entry.
type InterestService struct {
	store store.Interests
	queue *outbox.Queue
	now   func() time.Time
	log   zerolog.Logger
}

// NewInterestService builds the service. queue is told about the paired
// outbox rows and may be nil when the service only confirms deliveries.
func NewInterestService(st store.Interests, queue *outbox.Queue, now func() time.Time, log zerolog.Logger) *InterestService {
	if now == nil {
		now = time.Now
	}
	return &InterestService{store: st, queue: queue, now: now, log: log}
}

// Get reads the local copy only. It returns nil, nil when the owner has none.
func (s *InterestService) Get(ctx context.Context, ownerID string) (*model.InterestSet, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	set, err := s.store.Get(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return set, err
}

// Save stores interests as the next version and queues it for sync in the
// same transaction.
func (s *InterestService) Save(ctx context.Context, ownerID string, interests []string) (*model.InterestSet, *model.OutboxEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, nil, err
	}
	set, entry, err := s.store.Save(ctx, ownerID, cleanInterests(interests), s.now())
	if err != nil {
		return nil, nil, fmt.Errorf("save interests: %w", err)
	}
	if s.queue != nil {
		s.queue.Recorded(ctx, entry)
	}
	s.log.Debug().Str("owner_id", ownerID).Int64("version", set.Version).Int64("outbox_id", entry.ID).Msg("interests saved")
	return set, entry, nil
}

// MarkSynced clears NeedsSync only if version is still the stored one.
func (s *InterestService) MarkSynced(ctx context.Context, ownerID string, version int64, serverTS time.Time) (bool, error) {
	return s.store.MarkSynced(ctx, ownerID, version, serverTS)
}

// ConfirmDelivery is the outbox hook for upsert_interests entries.
func (s *InterestService) ConfirmDelivery(ctx context.Context, e *model.OutboxEntry, r deliver.Receipt) error {
	if e.Operation != model.OpUpsertInterests {
		return nil
	}
	version, ok := payloadInt(e.Payload["version"])
	if !ok {
		return fmt.Errorf("outbox %d: upsert_interests payload has no version", e.ID)
	}
	ts := r.ServerTimestamp
	if ts.IsZero() {
		ts = s.now()
	}
	cleared, err := s.MarkSynced(ctx, e.OwnerID, version, ts)
	if err != nil {
		return err
	}
	if !cleared {
		s.log.Debug().Str("owner_id", e.OwnerID).Int64("version", version).Msg("newer local interests pending, keeping needs_sync")
	}
	return nil
}

// ApplyRemote overwrites the local copy with a server copy when the server
// version is strictly newer. It reports whether the copy was applied.
func (s *InterestService) ApplyRemote(ctx context.Context, remote *model.InterestSet) (bool, error) {
	if remote == nil {
		return false, invalid("remote interest set is nil")
	}
	if err := requireOwner(remote.OwnerID); err != nil {
		return false, err
	}
	local, err := s.Get(ctx, remote.OwnerID)
	if err != nil {
		return false, err
	}
	if !model.ShouldApplyRemote(local, remote.Version) {
		return false, nil
	}
	cp := *remote
	cp.Interests = cleanInterests(remote.Interests)
	cp.NeedsSync = false
	if err := s.store.Replace(ctx, &cp); err != nil {
		return false, fmt.Errorf("apply remote interests: %w", err)
	}
	return true, nil
}

// cleanInterests trims tags, drops empty ones and removes case-insensitive
// duplicates, keeping the first spelling.
func cleanInterests(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// payloadInt reads an integer that may have been round-tripped through JSON.
func payloadInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
