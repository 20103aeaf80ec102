package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Connectivity reports whether the remote backend is currently reachable.
// The tiered cache reads it once per lookup.
type Connectivity interface {
	IsOnline() bool
}

// StaticConnectivity is a Connectivity whose state is set by hand.
type StaticConnectivity struct {
	online atomic.Bool
}

func NewStaticConnectivity(online bool) *StaticConnectivity {
	c := &StaticConnectivity{}
	c.online.Store(online)
	return c
}

func (c *StaticConnectivity) IsOnline() bool   { return c.online.Load() }
func (c *StaticConnectivity) SetOnline(v bool) { c.online.Store(v) }

// RemoteChecker probes a remote dependency. It is both a HealthChecker and
// the Connectivity signal: online means the last probe succeeded.
type RemoteChecker struct {
	name         string
	pinger       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewRemoteChecker creates a checker; it reports offline until the first successful probe.
func NewRemoteChecker(name string, pinger HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *RemoteChecker {
	return &RemoteChecker{name: name, pinger: pinger, log: log, probeTimeout: probeTimeout}
}

func (rc *RemoteChecker) Name() string    { return rc.name }
func (rc *RemoteChecker) IsHealthy() bool { return rc.healthy.Load() == 1 }
func (rc *RemoteChecker) IsOnline() bool  { return rc.IsHealthy() }

// Start probes immediately and then on every tick until ctx is done.
func (rc *RemoteChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rc.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rc.Check(ctx)
		}
	}
}

// Check runs one probe and updates the cached state, logging transitions.
func (rc *RemoteChecker) Check(ctx context.Context) {
	to := rc.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	err := rc.pinger.HealthPing(probeCtx)
	next := int32(1)
	if err != nil {
		next = 0
	}
	prev := rc.healthy.Swap(next)
	if prev == next {
		return
	}
	if err != nil {
		rc.log.Warn().Str("checker", rc.name).Err(err).Msg("remote unreachable, switching to offline mode")
	} else {
		rc.log.Info().Str("checker", rc.name).Msg("remote reachable")
	}
}
