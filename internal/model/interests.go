package model

import "time"

// InterestSet is the locally versioned list of a user's interest tags.
type InterestSet struct {
	OwnerID         string     `json:"ownerId"`
	Interests       []string   `json:"interests"`
	Version         int64      `json:"version"`
	LastModified    time.Time  `json:"lastModified"`
	ServerTimestamp *time.Time `json:"serverTimestamp,omitempty"`
	NeedsSync       bool       `json:"needsSync"`
}

// ShouldApplyRemote implements last-write-wins by version: a remote copy is
// applied only when it is strictly newer than the local one.
func ShouldApplyRemote(local *InterestSet, remoteVersion int64) bool {
	if local == nil {
		return true
	}
	return remoteVersion > local.Version
}

// Achievement is an unlocked badge, unique per owner.
type Achievement struct {
	OwnerID       string    `json:"ownerId"`
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}
