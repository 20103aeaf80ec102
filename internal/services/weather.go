package services

import (
	"context"
	"fmt"
	"math"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// WeatherService caches observations per coordinate cell.
type WeatherService struct {
	tier   *cache.Tiered[model.Weather]
	source WeatherSource
}

func NewWeatherService(tier *cache.Tiered[model.Weather], source WeatherSource) *WeatherService {
	return &WeatherService{tier: tier, source: source}
}

// Current returns the observation for (lat, lon). Coordinates are rounded to
// two decimals (about 1km) so nearby lookups share an entry.
func (s *WeatherService) Current(ctx context.Context, ownerID string, lat, lon float64, opts ...cache.LookupOption) (cache.Result[model.Weather], error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return cache.Result[model.Weather]{}, invalid("latitude %v out of range", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return cache.Result[model.Weather]{}, invalid("longitude %v out of range", lon)
	}
	rlat, rlon := roundCoord(lat), roundCoord(lon)
	return s.tier.Lookup(ctx, ownerID, WeatherKey(rlat, rlon), func(ctx context.Context) (model.Weather, error) {
		return s.source.FetchWeather(ctx, rlat, rlon)
	}, opts...)
}

// WeatherKey is the cache key of a coordinate cell.
func WeatherKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", roundCoord(lat), roundCoord(lon))
}

func roundCoord(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

func (s *WeatherService) Tier() *cache.Tiered[model.Weather] { return s.tier }
