package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/orbitsound/orbitsound-sync/internal/localstate"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Delivery modes for the outbox worker.
const (
	DeliveryAuto     = "auto"
	DeliveryHTTP     = "http"
	DeliveryPostgres = "postgres"
	DeliveryNone     = "none"
)

// Config holds the configuration for the sync core binaries.
// Environment variables are parsed with the ORBIT_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Local store; empty resolves to ~/.orbitsound/orbit.db
	DataPath string `envconfig:"DATA_PATH" default:""`

	// In-memory tier
	MemoryCacheSize int           `envconfig:"MEMORY_CACHE_SIZE" default:"512"`
	MemoryCacheTTL  time.Duration `envconfig:"MEMORY_CACHE_TTL" default:"5m"`

	// Per-domain TTL and degraded (offline) windows
	RecommendationsTTL      time.Duration `envconfig:"RECOMMENDATIONS_TTL" default:"1h"`
	RecommendationsDegraded time.Duration `envconfig:"RECOMMENDATIONS_DEGRADED" default:"24h"`
	WeatherTTL              time.Duration `envconfig:"WEATHER_TTL" default:"20m"`
	WeatherDegraded         time.Duration `envconfig:"WEATHER_DEGRADED" default:"3h"`
	LibraryTTL              time.Duration `envconfig:"LIBRARY_TTL" default:"15m"`
	LibraryDegraded         time.Duration `envconfig:"LIBRARY_DEGRADED" default:"24h"`
	ActivityTTL             time.Duration `envconfig:"ACTIVITY_TTL" default:"15m"`
	ActivityDegraded        time.Duration `envconfig:"ACTIVITY_DEGRADED" default:"24h"`

	// Session reconstruction
	InactivityWindow  time.Duration `envconfig:"INACTIVITY_WINDOW" default:"30m"`
	RecentSearchLimit int           `envconfig:"RECENT_SEARCH_LIMIT" default:"10"`

	// Maintenance
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"10m"`
	SyncedRetention time.Duration `envconfig:"SYNCED_RETENTION" default:"168h"`

	// Remote backend
	DeliveryMode string `envconfig:"DELIVERY_MODE" default:"auto"`
	RemoteURL    string `envconfig:"REMOTE_URL" default:""`
	RemoteToken  string `envconfig:"REMOTE_TOKEN" default:""`
	RemoteDSN    string `envconfig:"REMOTE_DSN" default:""`
	UpstreamURL  string `envconfig:"UPSTREAM_URL" default:""`

	// Per request, for both the upstream fetchers and HTTP delivery
	RemoteTimeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"10s"`

	// Outbox worker
	WorkerBatchSize      int           `envconfig:"WORKER_BATCH_SIZE" default:"100"`
	WorkerInterval       time.Duration `envconfig:"WORKER_INTERVAL" default:"5s"`
	WorkerMaxAttempts    int           `envconfig:"WORKER_MAX_ATTEMPTS" default:"5"`
	WorkerInitialBackoff time.Duration `envconfig:"WORKER_INITIAL_BACKOFF" default:"200ms"`

	// Health
	HealthInterval     time.Duration `envconfig:"HEALTH_INTERVAL" default:"10s"`
	HealthProbeTimeout time.Duration `envconfig:"HEALTH_PROBE_TIMEOUT" default:"2s"`
}

// ResolveDefaults derives DeliveryMode when set to "auto" and fills DataPath.
func (c *Config) ResolveDefaults() error {
	switch c.DeliveryMode {
	case "", DeliveryAuto:
		switch {
		case c.RemoteURL != "":
			c.DeliveryMode = DeliveryHTTP
		case c.RemoteDSN != "":
			c.DeliveryMode = DeliveryPostgres
		default:
			c.DeliveryMode = DeliveryNone
		}
	case DeliveryHTTP:
		if c.RemoteURL == "" {
			return fmt.Errorf("DELIVERY_MODE=http requires REMOTE_URL")
		}
	case DeliveryPostgres:
		if c.RemoteDSN == "" {
			return fmt.Errorf("DELIVERY_MODE=postgres requires REMOTE_DSN")
		}
	case DeliveryNone:
	default:
		return fmt.Errorf("unsupported DELIVERY_MODE: %s", c.DeliveryMode)
	}

	if c.DataPath == "" {
		p, err := localstate.DBPath()
		if err != nil {
			return fmt.Errorf("resolve data path: %w", err)
		}
		c.DataPath = p
	}

	if c.WorkerBatchSize <= 0 {
		return fmt.Errorf("WORKER_BATCH_SIZE must be positive, got %d", c.WorkerBatchSize)
	}
	if c.MemoryCacheSize <= 0 {
		return fmt.Errorf("MEMORY_CACHE_SIZE must be positive, got %d", c.MemoryCacheSize)
	}
	for name, d := range map[string]time.Duration{
		"SWEEP_INTERVAL":       c.SweepInterval,
		"HEALTH_INTERVAL":      c.HealthInterval,
		"HEALTH_PROBE_TIMEOUT": c.HealthProbeTimeout,
		"WORKER_INTERVAL":      c.WorkerInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Example: ORBIT_HTTP_PORT, ORBIT_WEATHER_TTL=30m
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ORBIT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("data_path", cfg.DataPath).
		Str("delivery_mode", cfg.DeliveryMode).
		Bool("remote_token_present", cfg.RemoteToken != "").
		Bool("remote_dsn_present", cfg.RemoteDSN != "").
		Str("upstream_url", cfg.UpstreamURL).
		Dur("inactivity_window", cfg.InactivityWindow).
		Dur("sweep_interval", cfg.SweepInterval).
		Int("worker_batch_size", cfg.WorkerBatchSize).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:             EnvTesting,
		LogLevel:                "debug",
		HTTPPort:                8080,
		MemoryCacheSize:         128,
		MemoryCacheTTL:          time.Minute,
		RecommendationsTTL:      time.Hour,
		RecommendationsDegraded: 24 * time.Hour,
		WeatherTTL:              20 * time.Minute,
		WeatherDegraded:         3 * time.Hour,
		LibraryTTL:              15 * time.Minute,
		LibraryDegraded:         24 * time.Hour,
		ActivityTTL:             15 * time.Minute,
		ActivityDegraded:        24 * time.Hour,
		InactivityWindow:        30 * time.Minute,
		RecentSearchLimit:       10,
		SweepInterval:           time.Minute,
		SyncedRetention:         time.Hour,
		DeliveryMode:            DeliveryNone,
		RemoteTimeout:           time.Second,
		WorkerBatchSize:         10,
		WorkerInterval:          50 * time.Millisecond,
		WorkerMaxAttempts:       3,
		WorkerInitialBackoff:    time.Millisecond,
		HealthInterval:          time.Second,
		HealthProbeTimeout:      time.Second,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
