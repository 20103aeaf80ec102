// Package outboxworker drains the local outbox to the configured remote.
package outboxworker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/factory"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/logger"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/services"
)

// Run starts the outbox worker and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log := logger.New("outbox-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("local store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	rem, closer, err := factory.NewDeliverer(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("delivery target unavailable")
		return err
	}
	defer func() { _ = closer.Close() }()

	// Pause delivery while the remote is unreachable
	rc := health.NewRemoteChecker("remote", rem, log, cfg.HealthProbeTimeout)
	go rc.Start(ctx, cfg.HealthInterval)

	w := NewWorker(cfg, st.Outbox(), rem, log)
	w.PauseWhenOffline(rc)
	w.OnSynced(model.OpUpsertInterests, services.NewInterestService(st.Interests(), nil, nil, log).ConfirmDelivery)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("outbox worker exit")
		return err
	}
	return nil
}
