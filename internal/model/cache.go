package model

import "time"

// Domain names a family of cached payloads sharing one TTL policy.
type Domain string

const (
	DomainRecommendations Domain = "recommendations"
	DomainWeather         Domain = "weather"
	DomainLibrary         Domain = "library"
	DomainActivity        Domain = "activity"
)

// CacheEntry is a persisted cache row. Payload is an encoded envelope owned by internal/cache.
type CacheEntry struct {
	Domain        Domain    `json:"domain"`
	Key           string    `json:"key"`
	OwnerID       string    `json:"ownerId"`
	Payload       []byte    `json:"payload"`
	SchemaVersion int       `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Valid reports whether the entry is within its strict TTL.
func (e *CacheEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// UsableDegraded reports whether the entry may still be shown while offline.
func (e *CacheEntry) UsableDegraded(now time.Time, window time.Duration) bool {
	return now.Sub(e.CreatedAt) < window
}

// Age returns how old the entry is at now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	if now.Before(e.CreatedAt) {
		return 0
	}
	return now.Sub(e.CreatedAt)
}
