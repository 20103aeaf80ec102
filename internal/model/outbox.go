package model

import "time"

// OperationType tags what an outbox payload represents.
type OperationType string

const (
	OpUnlockAchievement OperationType = "unlock_achievement"
	OpUpdateMood        OperationType = "update_mood"
	OpUpsertInterests   OperationType = "upsert_interests"
	OpLogActivity       OperationType = "log_activity"
	OpLikeTrack         OperationType = "like_track"
)

// KnownOperations lists every operation type the outbox accepts.
var KnownOperations = []OperationType{
	OpUnlockAchievement,
	OpUpdateMood,
	OpUpsertInterests,
	OpLogActivity,
	OpLikeTrack,
}

// IsKnown reports whether op is part of the enumeration.
func (op OperationType) IsKnown() bool {
	for _, k := range KnownOperations {
		if k == op {
			return true
		}
	}
	return false
}

// SyncStatus is the delivery state of an outbox entry.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// OutboxEntry records one intended remote write. Payload is immutable once stored.
type OutboxEntry struct {
	ID          int64                  `json:"id"`
	OwnerID     string                 `json:"ownerId"`
	DeliveryKey string                 `json:"deliveryKey"`
	Operation   OperationType          `json:"operation"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"createdAt"`
	Status      SyncStatus             `json:"status"`
	SyncedAt    *time.Time             `json:"syncedAt,omitempty"`
}

// ListUnsyncedRequest filters pending outbox entries. Empty OwnerID lists every owner.
type ListUnsyncedRequest struct {
	OwnerID string
	Limit   int
	// ExcludeOwners drops the entries of these owners.
	ExcludeOwners []string
}
