// Package orbitservice hosts the sync core behind the HTTP API.
package orbitservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/api"
	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/factory"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/logger"
	"github.com/orbitsound/orbitsound-sync/internal/remote"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// Run starts the HTTP service and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log := logger.New("orbit-service", cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("upstream_url", cfg.UpstreamURL).
		Msg("Orbit service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("local store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	upstream := remote.New(cfg.UpstreamURL, cfg.RemoteToken, cfg.RemoteTimeout)
	conn, checkers := startHealthCheckers(ctx, cfg, log, st, upstream)
	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, cfg.HealthInterval)

	core := factory.NewCore(cfg, st, upstream, conn, nil, log)
	go core.Sweeper.Start(ctx, cfg.SweepInterval)

	router := api.NewRouter(api.Deps{
		Recommendations: core.Recommendations,
		Weather:         core.Weather,
		Library:         core.Library,
		Interests:       core.Interests,
		Moods:           core.Moods,
		Achievements:    core.Achievements,
		Accounts:        core.Accounts,
		Activity:        core.Activity,
		Outbox:          core.Queue,
		Healthy:         svcHealth.IsHealthy,
		Connectivity:    conn,
		Log:             log,
	})

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// startHealthCheckers starts the store checker and, when an upstream is
// configured, the remote checker that doubles as the online signal. Without
// an upstream the service runs permanently offline on cached data.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, upstream *remote.Client) (health.Connectivity, []health.HealthChecker) {
	storeChecker := store.NewStoreHealthChecker(st, log, cfg.HealthProbeTimeout)
	go storeChecker.Start(ctx, cfg.HealthInterval)
	checkers := []health.HealthChecker{storeChecker}

	if cfg.UpstreamURL == "" {
		log.Warn().Msg("no upstream configured; serving cached data only")
		return health.NewStaticConnectivity(false), checkers
	}
	// the remote checker drives connectivity but does not gate service health
	rc := health.NewRemoteChecker("upstream", upstream, log, cfg.HealthProbeTimeout)
	go rc.Start(ctx, cfg.HealthInterval)
	return rc, checkers
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen %s: %w", server.Addr, err)
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
