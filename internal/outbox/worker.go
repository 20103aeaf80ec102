package outbox

import (
	"context"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// Config controls batch size, polling cadence and per-entry retries.
type Config struct {
	BatchSize      int           // number of rows to read per cycle
	Interval       time.Duration // poll interval
	MaxAttempts    int           // delivery attempts per entry per cycle
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// SyncedHook runs after the remote confirmed an entry and it was marked synced.
type SyncedHook func(ctx context.Context, e *model.OutboxEntry, r deliver.Receipt) error

// Stats summarizes one drain cycle.
type Stats struct {
	Delivered int
	Failed    int
	// Skipped counts entries held back because an earlier entry of the same owner failed.
	Skipped int
}

// Worker drains the outbox FIFO per owner: once an owner's entry fails, the
// rest of that owner's entries wait for the next cycle. Permanently rejected
// entries are never resent by the same worker and hold their owner until an
// operator removes them.
type Worker struct {
	queue     *Queue
	deliverer deliver.Deliverer
	cfg       Config
	log       zerolog.Logger
	conn      health.Connectivity

	mu       sync.RWMutex
	hooks    map[model.OperationType][]SyncedHook
	poisoned map[int64]bool
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(q *Queue, d deliver.Deliverer, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	return &Worker{
		queue:     q,
		deliverer: d,
		cfg:       cfg,
		log:       log,
		hooks:     map[model.OperationType][]SyncedHook{},
		poisoned:  map[int64]bool{},
	}
}

// OnSynced registers a confirmation hook for op.
func (w *Worker) OnSynced(op model.OperationType, hook SyncedHook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hooks[op] = append(w.hooks[op], hook)
}

// PauseWhenOffline makes Run skip ticks while conn reports offline.
func (w *Worker) PauseWhenOffline(conn health.Connectivity) { w.conn = conn }

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("outbox worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if w.conn != nil && !w.conn.IsOnline() {
				w.log.Debug().Msg("remote offline, skipping outbox cycle")
				continue
			}
			if _, err := w.ProcessOnce(ctx); err != nil {
				// Log and continue; failed owners are retried next tick
				w.log.Error().Err(err).Msg("outbox processOnce")
			}
		}
	}
}

// Drain runs cycles until one delivers nothing, then reports the totals.
func (w *Worker) Drain(ctx context.Context) (Stats, error) {
	var total Stats
	for {
		st, err := w.ProcessOnce(ctx)
		total.Delivered += st.Delivered
		total.Failed += st.Failed
		total.Skipped += st.Skipped
		if err != nil || st.Delivered == 0 || st.Failed > 0 {
			return total, err
		}
	}
}

// ProcessOnce delivers up to one batch of pending entries. An owner whose
// entry fails is excluded from further reads in the cycle, so its backlog
// cannot crowd other owners out of the batch.
func (w *Worker) ProcessOnce(ctx context.Context) (Stats, error) {
	var st Stats
	blocked := map[string]bool{}
	var excluded []string
	budget := w.cfg.BatchSize

	for budget > 0 {
		entries, err := w.queue.listExcluding(ctx, excluded, budget)
		if err != nil {
			return st, err
		}
		newlyBlocked := false
		for _, e := range entries {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			if blocked[e.OwnerID] {
				st.Skipped++
				continue
			}
			if w.isPoisoned(e.ID) {
				blocked[e.OwnerID] = true
				newlyBlocked = true
				st.Skipped++
				continue
			}
			budget--
			receipt, err := w.deliver(ctx, e)
			if err != nil {
				blocked[e.OwnerID] = true
				newlyBlocked = true
				st.Failed++
				kind := "transient"
				if deliver.IsPermanent(err) {
					kind = "permanent"
					w.poison(e.ID)
				}
				deliveryFailuresTotal.WithLabelValues(string(e.Operation), kind).Inc()
				w.log.Error().Err(err).
					Int64("id", e.ID).
					Str("owner_id", e.OwnerID).
					Str("op", string(e.Operation)).
					Str("kind", kind).
					Msg("outbox delivery failed")
			} else {
				if _, err := w.queue.MarkSynced(ctx, []int64{e.ID}); err != nil {
					// Delivered but not recorded: the next cycle redelivers and the remote dedupes.
					return st, err
				}
				st.Delivered++
				deliveredTotal.WithLabelValues(string(e.Operation)).Inc()
				w.runHooks(ctx, e, receipt)
			}
			if budget == 0 {
				break
			}
		}
		if !newlyBlocked {
			break
		}
		excluded = excluded[:0]
		for owner := range blocked {
			excluded = append(excluded, owner)
		}
	}

	if _, err := w.queue.PendingCount(ctx); err != nil {
		w.log.Warn().Err(err).Msg("outbox pending count")
	}
	return st, nil
}

func (w *Worker) isPoisoned(id int64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.poisoned[id]
}

// poison parks a permanently rejected entry: it stays pending and keeps
// blocking its owner, but is not sent again by this worker.
func (w *Worker) poison(id int64) {
	w.mu.Lock()
	w.poisoned[id] = true
	w.mu.Unlock()
	poisonedTotal.Inc()
}

// deliver retries one entry with exponential backoff. Permanent rejections stop immediately.
func (w *Worker) deliver(ctx context.Context, e *model.OutboxEntry) (deliver.Receipt, error) {
	if !e.Operation.IsKnown() {
		return deliver.Receipt{}, deliver.NewPermanentError("unknown operation "+string(e.Operation), nil)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = w.cfg.InitialBackoff
	exp.Multiplier = 2
	exp.MaxInterval = w.cfg.MaxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(w.cfg.MaxAttempts-1)), ctx)

	var receipt deliver.Receipt
	op := func() error {
		start := time.Now()
		r, err := w.deliverer.Deliver(ctx, e)
		deliveryDuration.WithLabelValues(string(e.Operation)).Observe(time.Since(start).Seconds())
		if err != nil {
			if deliver.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		receipt = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		w.log.Debug().Err(err).Int64("id", e.ID).Dur("wait", wait).Msg("outbox delivery retry")
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return deliver.Receipt{}, err
	}
	return receipt, nil
}

func (w *Worker) runHooks(ctx context.Context, e *model.OutboxEntry, r deliver.Receipt) {
	w.mu.RLock()
	hooks := w.hooks[e.Operation]
	w.mu.RUnlock()
	for _, h := range hooks {
		if err := h(ctx, e, r); err != nil {
			w.log.Error().Stack().Err(err).Int64("id", e.ID).Str("op", string(e.Operation)).Msg("outbox synced hook failed")
		}
	}
}
