package model

import "time"

// LoginEvent is produced by the auth flow.
type LoginEvent struct {
	OwnerID   string    `json:"ownerId"`
	Identity  string    `json:"identity"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// OperationEvent is a queued write seen as user activity.
type OperationEvent struct {
	OwnerID   string        `json:"ownerId"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`
}

// SearchEvent is produced by the search UI.
type SearchEvent struct {
	OwnerID   string    `json:"ownerId"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
}
