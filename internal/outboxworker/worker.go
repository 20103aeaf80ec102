package outboxworker

import (
	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// NewWorker builds an outbox worker from the configured batch and retry settings.
func NewWorker(cfg *config.Config, st store.Outbox, d deliver.Deliverer, log zerolog.Logger) *outbox.Worker {
	q := outbox.NewQueue(st, nil)
	return outbox.NewWorker(q, d, outbox.Config{
		BatchSize:      cfg.WorkerBatchSize,
		Interval:       cfg.WorkerInterval,
		MaxAttempts:    cfg.WorkerMaxAttempts,
		InitialBackoff: cfg.WorkerInitialBackoff,
	}, log)
}
