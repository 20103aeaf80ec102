package cache

import (
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// Policy is the freshness configuration of one cache domain.
type Policy struct {
	Domain model.Domain
	// TTL bounds strict validity: an entry is served online iff now < CreatedAt+TTL.
	TTL time.Duration
	// Degraded bounds offline use: an entry is served offline iff now-CreatedAt < Degraded.
	Degraded time.Duration
	// SchemaVersion is written into every payload envelope of the domain.
	SchemaVersion int
}

// DefaultPolicies returns the stock policy of every domain.
func DefaultPolicies() map[model.Domain]Policy {
	return map[model.Domain]Policy{
		model.DomainRecommendations: {Domain: model.DomainRecommendations, TTL: time.Hour, Degraded: 24 * time.Hour, SchemaVersion: 1},
		model.DomainWeather:         {Domain: model.DomainWeather, TTL: 20 * time.Minute, Degraded: 3 * time.Hour, SchemaVersion: 1},
		model.DomainLibrary:         {Domain: model.DomainLibrary, TTL: 15 * time.Minute, Degraded: 24 * time.Hour, SchemaVersion: 1},
		model.DomainActivity:        {Domain: model.DomainActivity, TTL: 15 * time.Minute, Degraded: 24 * time.Hour, SchemaVersion: 1},
	}
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time
