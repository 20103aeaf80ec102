package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/health"
)

// StoreHealthChecker monitors the local store via periodic pings.
type StoreHealthChecker struct {
	store        Store
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewStoreHealthChecker creates a new store health checker.
func NewStoreHealthChecker(store Store, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	hc := &StoreHealthChecker{
		store:        store,
		log:          log,
		probeTimeout: probeTimeout,
	}
	hc.healthy.Store(0) // start unhealthy until first successful probe
	return hc
}

// Name returns the checker name.
func (hc *StoreHealthChecker) Name() string {
	return "store"
}

// IsHealthy returns the cached health status (non-blocking).
func (hc *StoreHealthChecker) IsHealthy() bool {
	return hc.healthy.Load() == 1
}

// Start begins periodic health checking.
func (hc *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.Check(ctx)
		}
	}
}

// Check runs one probe and updates the cached flag.
func (hc *StoreHealthChecker) Check(ctx context.Context) {
	to := hc.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if hc.probe(checkCtx) {
		hc.healthy.Store(1)
	} else {
		hc.healthy.Store(0)
	}
}

func (hc *StoreHealthChecker) probe(ctx context.Context) bool {
	var err error
	if p, ok := hc.store.(health.HealthPinger); ok {
		err = p.HealthPing(ctx)
	} else {
		// Fallback: a keyed read; not-found still proves the store answers.
		_, err = hc.store.Interests().Get(ctx, "__health_check__")
		if errors.Is(err, ErrNotFound) {
			err = nil
		}
	}
	if err != nil {
		hc.log.Error().Stack().
			Str("checker", hc.Name()).
			Err(err).
			Msg("store health check failed")
		return false
	}
	return true
}
