package services

import (
	"context"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// RecommendationService serves query results through the tiered cache.
type RecommendationService struct {
	tier   *cache.Tiered[model.Recommendations]
	source RecommendationSource
}

func NewRecommendationService(tier *cache.Tiered[model.Recommendations], source RecommendationSource) *RecommendationService {
	return &RecommendationService{tier: tier, source: source}
}

// Get resolves query for ownerID. The cache key is the normalized query, so
// equivalent spellings share one entry.
func (s *RecommendationService) Get(ctx context.Context, ownerID, query string, opts ...cache.LookupOption) (cache.Result[model.Recommendations], error) {
	key := cache.NormalizeKey(query)
	if key == "" {
		return cache.Result[model.Recommendations]{}, invalid("query is required")
	}
	return s.tier.Lookup(ctx, ownerID, key, func(ctx context.Context) (model.Recommendations, error) {
		return s.source.FetchRecommendations(ctx, key)
	}, opts...)
}

// Tier exposes the underlying cache for sweeps and logout.
func (s *RecommendationService) Tier() *cache.Tiered[model.Recommendations] { return s.tier }
