package factory

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/activity"
	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/memcache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/services"
	"github.com/orbitsound/orbitsound-sync/internal/store/sqlite"
)

// Sources bundles the remote fetchers of every cached domain.
type Sources interface {
	services.RecommendationSource
	services.WeatherSource
	services.LibrarySource
}

// Core is the fully wired sync core over one local store.
type Core struct {
	Store           *sqlite.Store
	Queue           *outbox.Queue
	Recommendations *services.RecommendationService
	Weather         *services.WeatherService
	Library         *services.LibraryService
	Interests       *services.InterestService
	Moods           *services.MoodService
	Achievements    *services.AchievementService
	Accounts        *services.AccountService
	Activity        *activity.Engine
	Sweeper         *cache.Sweeper
}

// Policies maps the configured windows onto cache policies.
func Policies(cfg *config.Config) map[model.Domain]cache.Policy {
	p := cache.DefaultPolicies()
	set := func(d model.Domain, ttl, degraded time.Duration) {
		pol := p[d]
		if ttl > 0 {
			pol.TTL = ttl
		}
		if degraded > 0 {
			pol.Degraded = degraded
		}
		p[d] = pol
	}
	set(model.DomainRecommendations, cfg.RecommendationsTTL, cfg.RecommendationsDegraded)
	set(model.DomainWeather, cfg.WeatherTTL, cfg.WeatherDegraded)
	set(model.DomainLibrary, cfg.LibraryTTL, cfg.LibraryDegraded)
	set(model.DomainActivity, cfg.ActivityTTL, cfg.ActivityDegraded)
	return p
}

func newTier[T any](st *sqlite.Store, pol cache.Policy, cfg *config.Config, conn health.Connectivity, now cache.Clock, log zerolog.Logger) *cache.Tiered[T] {
	persistent := cache.NewStore[T](st.Cache(), pol, now, log)
	return cache.NewTiered(persistent, memcache.New[T](cfg.MemoryCacheSize, cfg.MemoryCacheTTL), conn, log)
}

// NewCore wires services, the activity engine and the sweeper. now may be nil.
func NewCore(cfg *config.Config, st *sqlite.Store, src Sources, conn health.Connectivity, now cache.Clock, log zerolog.Logger) *Core {
	if now == nil {
		now = time.Now
	}
	pol := Policies(cfg)
	queue := outbox.NewQueue(st.Outbox(), now)

	recTier := newTier[model.Recommendations](st, pol[model.DomainRecommendations], cfg, conn, now, log)
	weatherTier := newTier[model.Weather](st, pol[model.DomainWeather], cfg, conn, now, log)
	libTier := newTier[model.LibrarySection](st, pol[model.DomainLibrary], cfg, conn, now, log)
	summaries := cache.NewStore[model.ActivitySummary](st.Cache(), pol[model.DomainActivity], now, log)

	engine := activity.NewEngine(st.Events(), summaries, activity.Config{
		InactivityWindow:  cfg.InactivityWindow,
		RecentSearchLimit: cfg.RecentSearchLimit,
	}, now, log)
	queue.OnEnqueue(engine.OperationRecorded)

	domains := []cache.Managed{recTier, weatherTier, libTier, summaries}
	return &Core{
		Store:           st,
		Queue:           queue,
		Recommendations: services.NewRecommendationService(recTier, src),
		Weather:         services.NewWeatherService(weatherTier, src),
		Library:         services.NewLibraryService(libTier, src, queue, now, log),
		Interests:       services.NewInterestService(st.Interests(), queue, now, log),
		Moods:           services.NewMoodService(queue, now),
		Achievements:    services.NewAchievementService(st.Achievements(), queue, now, log),
		Accounts:        services.NewAccountService(log, domains...),
		Activity:        engine,
		Sweeper:         cache.NewSweeper(log, now, st.Outbox(), cfg.SyncedRetention, domains...),
	}
}
