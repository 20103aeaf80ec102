package services

import (
	"context"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// RecommendationSource fetches fresh recommendations for a free-text query.
type RecommendationSource interface {
	FetchRecommendations(ctx context.Context, query string) (model.Recommendations, error)
}

// WeatherSource fetches the current observation for a coordinate.
type WeatherSource interface {
	FetchWeather(ctx context.Context, lat, lon float64) (model.Weather, error)
}

// LibrarySource fetches one section of a user's library.
type LibrarySource interface {
	FetchLibrarySection(ctx context.Context, ownerID, sectionID string) (model.LibrarySection, error)
}
