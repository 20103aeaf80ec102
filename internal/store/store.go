package store

import (
	"context"
	"errors"
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (currently sqlite).
type Store interface {
	Cache() CacheEntries
	Outbox() Outbox
	Interests() Interests
	Achievements() Achievements
	Events() Events
	Close() error
}

// CacheEntries persists tiered-cache rows, keyed by (domain, key).
type CacheEntries interface {
	Get(ctx context.Context, domain model.Domain, key string) (*model.CacheEntry, error)
	Put(ctx context.Context, e *model.CacheEntry) error
	Delete(ctx context.Context, domain model.Domain, key string) error
	// DeleteExpiredBefore removes rows of domain whose ExpiresAt is before cutoff.
	DeleteExpiredBefore(ctx context.Context, domain model.Domain, cutoff time.Time) (int64, error)
	// DeleteOwner removes rows of one owner; an empty domain matches every domain.
	DeleteOwner(ctx context.Context, domain model.Domain, ownerID string) (int64, error)
}

// Outbox is the durable queue of pending remote writes.
type Outbox interface {
	Enqueue(ctx context.Context, e *model.OutboxEntry) (*model.OutboxEntry, error)
	ListUnsynced(ctx context.Context, req model.ListUnsyncedRequest) ([]*model.OutboxEntry, error)
	// MarkSynced flips pending rows to synced and returns how many changed.
	MarkSynced(ctx context.Context, ids []int64, at time.Time) (int64, error)
	PendingCount(ctx context.Context) (int64, error)
	// PurgeSyncedBefore deletes synced rows created before cutoff.
	PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Interests persists the versioned interest set.
type Interests interface {
	Get(ctx context.Context, ownerID string) (*model.InterestSet, error)
	// Save bumps the version, marks the row as needing sync and enqueues the
	// paired upsert_interests outbox entry in one transaction.
	Save(ctx context.Context, ownerID string, interests []string, at time.Time) (*model.InterestSet, *model.OutboxEntry, error)
	// MarkSynced clears NeedsSync when the stored version equals version.
	MarkSynced(ctx context.Context, ownerID string, version int64, serverTS time.Time) (bool, error)
	// Replace overwrites the local row with a server copy (no outbox entry).
	Replace(ctx context.Context, set *model.InterestSet) error
}

// Achievements persists unlocked achievements.
type Achievements interface {
	// Unlock stores the achievement and its unlock_achievement outbox entry in
	// one transaction. entry is nil when the achievement was already unlocked.
	Unlock(ctx context.Context, a *model.Achievement) (entry *model.OutboxEntry, err error)
	List(ctx context.Context, ownerID string) ([]*model.Achievement, error)
}

// Events exposes the raw event streams consumed by session reconstruction.
type Events interface {
	RecordLogin(ctx context.Context, e *model.LoginEvent) error
	RecordSearch(ctx context.Context, e *model.SearchEvent) error
	Logins(ctx context.Context, ownerID string, since time.Time) ([]model.LoginEvent, error)
	Operations(ctx context.Context, ownerID string, since time.Time) ([]model.OperationEvent, error)
	Searches(ctx context.Context, ownerID string, since time.Time) ([]model.SearchEvent, error)
}
