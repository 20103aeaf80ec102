package activity

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// Config tunes session reconstruction.
type Config struct {
	InactivityWindow  time.Duration
	RecentSearchLimit int
}

// Engine computes activity summaries from the local event streams and caches
// them per (owner, period).
type Engine struct {
	events store.Events
	cache  *cache.Store[model.ActivitySummary]
	cfg    Config
	now    cache.Clock
	log    zerolog.Logger
}

// NewEngine creates an Engine. summaries must be bound to the activity domain.
func NewEngine(events store.Events, summaries *cache.Store[model.ActivitySummary], cfg Config, now cache.Clock, log zerolog.Logger) *Engine {
	if cfg.InactivityWindow <= 0 {
		cfg.InactivityWindow = DefaultInactivityWindow
	}
	if cfg.RecentSearchLimit <= 0 {
		cfg.RecentSearchLimit = DefaultRecentSearchLimit
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{events: events, cache: summaries, cfg: cfg, now: now, log: log}
}

func summaryKey(ownerID string, period model.Period) string {
	return cache.OwnerKey(ownerID, string(period))
}

// Summary returns the activity summary of ownerID over the trailing period.
// Missing data yields a zero summary; only storage failures are errors.
func (e *Engine) Summary(ctx context.Context, ownerID string, period model.Period) (*model.ActivitySummary, error) {
	now := e.now()
	periodStart := now.Add(-period.Duration())
	key := summaryKey(ownerID, period)

	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok && coversPeriod(cached.Sessions, periodStart) {
		cached.FromCache = true
		return &cached, nil
	}

	var (
		logins   []model.LoginEvent
		ops      []model.OperationEvent
		searches []model.SearchEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logins, err = e.events.Logins(gctx, ownerID, periodStart)
		return err
	})
	g.Go(func() error {
		var err error
		ops, err = e.events.Operations(gctx, ownerID, periodStart)
		return err
	})
	g.Go(func() error {
		var err error
		searches, err = e.events.Searches(gctx, ownerID, periodStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &cache.StorageError{Op: "read activity events", Err: err}
	}

	sum := e.aggregate(ownerID, period, periodStart, now, logins, ops, searches)
	if len(sum.Sessions) > 0 {
		if err := e.cache.Put(ctx, ownerID, key, *sum); err != nil {
			// the summary is derived from local data; a failed cache write only costs a recompute
			e.log.Warn().Err(err).Str("owner_id", ownerID).Str("period", string(period)).Msg("activity summary not cached")
		}
	}
	return sum, nil
}

func (e *Engine) aggregate(ownerID string, period model.Period, periodStart, now time.Time, logins []model.LoginEvent, ops []model.OperationEvent, searches []model.SearchEvent) *model.ActivitySummary {
	sessions := GroupLoginSessions(logins, e.cfg.InactivityWindow)
	if len(sessions) == 0 {
		if s, ok := ImplicitSession(ops, searches, e.cfg.InactivityWindow); ok {
			sessions = []Session{s}
		}
	}
	logs := BuildSessionLogs(ownerID, sessions, ops, searches, BuildOptions{
		Window:        e.cfg.InactivityWindow,
		RecentLimit:   e.cfg.RecentSearchLimit,
		ProcessedAt:   now,
		CacheLifetime: e.cache.Policy().TTL,
	})
	return &model.ActivitySummary{
		OwnerID:          ownerID,
		Period:           period,
		PeriodStart:      periodStart,
		SessionsCount:    len(logs),
		TotalTimeMinutes: ActiveMinutes(logins, ops, searches, len(logs), e.cfg.InactivityWindow),
		MostCommonAction: MostCommonAction(ops, searches),
		TotalActions:     len(ops),
		TotalSearches:    len(searches),
		Sessions:         logs,
	}
}

// coversPeriod reports whether a cached list still describes the period:
// at least one session must start inside it.
func coversPeriod(logs []model.SessionActivityLog, periodStart time.Time) bool {
	for _, l := range logs {
		if !l.SessionStart.Before(periodStart) {
			return true
		}
	}
	return false
}

// RecordLogin appends a login event and drops the owner's cached summaries.
func (e *Engine) RecordLogin(ctx context.Context, ev *model.LoginEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	if err := e.events.RecordLogin(ctx, ev); err != nil {
		return &cache.StorageError{Op: "record login", Err: err}
	}
	return e.invalidate(ctx, ev.OwnerID)
}

// RecordSearch appends a search event and drops the owner's cached summaries.
func (e *Engine) RecordSearch(ctx context.Context, ev *model.SearchEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.now()
	}
	if err := e.events.RecordSearch(ctx, ev); err != nil {
		return &cache.StorageError{Op: "record search", Err: err}
	}
	return e.invalidate(ctx, ev.OwnerID)
}

// OperationRecorded drops the owner's cached summaries after a write was
// queued. It is registered as an outbox enqueue hook, so failures are logged.
func (e *Engine) OperationRecorded(ctx context.Context, entry *model.OutboxEntry) {
	if err := e.invalidate(ctx, entry.OwnerID); err != nil {
		e.log.Warn().Err(err).Str("owner_id", entry.OwnerID).Msg("activity cache invalidation failed")
	}
}

func (e *Engine) invalidate(ctx context.Context, ownerID string) error {
	_, err := e.cache.Clear(ctx, ownerID)
	return err
}

// Cache exposes the summary cache for sweeps and logout clears.
func (e *Engine) Cache() *cache.Store[model.ActivitySummary] { return e.cache }
