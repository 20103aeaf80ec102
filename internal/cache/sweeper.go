package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

// Managed is a cache domain that can be swept and cleared per owner.
// *Tiered and *Store satisfy it.
type Managed interface {
	Policy() Policy
	SweepExpired(ctx context.Context) (int64, error)
	Clear(ctx context.Context, ownerID string) (int64, error)
}

// OutboxPurger removes delivered outbox rows past retention.
type OutboxPurger interface {
	PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweepReport summarizes one maintenance pass.
type SweepReport struct {
	Deleted      map[model.Domain]int64
	PurgedOutbox int64
}

// Sweeper runs periodic maintenance over every cache domain and the outbox.
type Sweeper struct {
	domains   []Managed
	outbox    OutboxPurger
	retention time.Duration
	now       Clock
	log       zerolog.Logger
}

// NewSweeper creates a sweeper. A nil outbox or a zero retention disables the outbox purge.
func NewSweeper(log zerolog.Logger, now Clock, outbox OutboxPurger, retention time.Duration, domains ...Managed) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{domains: domains, outbox: outbox, retention: retention, now: now, log: log}
}

// RunOnce sweeps every domain and purges old synced outbox rows. It keeps
// going past a failing domain and returns the first error.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepReport, error) {
	rep := SweepReport{Deleted: make(map[model.Domain]int64, len(s.domains))}
	var firstErr error
	for _, d := range s.domains {
		n, err := d.SweepExpired(ctx)
		if err != nil {
			s.log.Error().Stack().Err(err).Str("domain", string(d.Policy().Domain)).Msg("cache sweep failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		rep.Deleted[d.Policy().Domain] = n
	}
	if s.outbox != nil && s.retention > 0 {
		n, err := s.outbox.PurgeSyncedBefore(ctx, s.now().Add(-s.retention))
		if err != nil {
			s.log.Error().Stack().Err(err).Msg("outbox purge failed")
			if firstErr == nil {
				firstErr = &StorageError{Op: "outbox purge", Err: err}
			}
		}
		rep.PurgedOutbox = n
	}
	return rep, firstErr
}

// Start runs RunOnce immediately and then on every tick until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	s.log.Info().Dur("interval", interval).Int("domains", len(s.domains)).Msg("cache sweeper starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		rep, err := s.RunOnce(ctx)
		if err != nil {
			return
		}
		ev := s.log.Debug().Int64("outbox_purged", rep.PurgedOutbox)
		for d, n := range rep.Deleted {
			ev = ev.Int64(string(d), n)
		}
		ev.Msg("cache sweep done")
	}

	run()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("cache sweeper stopping")
			return
		case <-ticker.C:
			run()
		}
	}
}

// ClearOwner drops every entry of ownerID across domains (logout).
func ClearOwner(ctx context.Context, ownerID string, domains ...Managed) (int64, error) {
	var total int64
	for _, d := range domains {
		n, err := d.Clear(ctx, ownerID)
		if err != nil {
			return total, fmt.Errorf("clear %s: %w", d.Policy().Domain, err)
		}
		total += n
	}
	return total, nil
}
