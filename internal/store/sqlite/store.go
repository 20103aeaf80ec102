package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// Store implements store.Store on a local SQLite database.
type Store struct {
	db *sql.DB
}

// NewWithDB wraps an already migrated connection.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

var _ store.Store = (*Store)(nil)

func (s *Store) Cache() store.CacheEntries        { return &cacheEntries{db: s.db} }
func (s *Store) Outbox() store.Outbox             { return &outbox{db: s.db} }
func (s *Store) Interests() store.Interests       { return &interests{db: s.db} }
func (s *Store) Achievements() store.Achievements { return &achievements{db: s.db} }
func (s *Store) Events() store.Events             { return &events{db: s.db} }

// DB exposes the underlying connection (maintenance commands and tests).
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// writeOutbox inserts a pending outbox row and fills ID, DeliveryKey and Status on e.
func writeOutbox(ctx context.Context, q execer, e *model.OutboxEntry) error {
	if e.DeliveryKey == "" {
		e.DeliveryKey = uuid.New().String()
	}
	payload := e.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode outbox payload: %w", err)
	}
	query, args, err := sq.Insert("outbox").
		Columns("owner_id", "delivery_key", "op", "payload", "created_at", "status").
		Values(e.OwnerID, e.DeliveryKey, string(e.Operation), string(b), toMillis(e.CreatedAt), string(model.SyncPending)).
		ToSql()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	e.Status = model.SyncPending
	e.CreatedAt = fromMillis(toMillis(e.CreatedAt))
	return nil
}
