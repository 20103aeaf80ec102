// Package pgdeliver mirrors outbox entries into a remote Postgres database.
package pgdeliver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

const (
	bootstrapSQL = `
CREATE TABLE IF NOT EXISTS sync_events (
    delivery_key TEXT PRIMARY KEY,
    owner_id     TEXT NOT NULL,
    op           TEXT NOT NULL,
    payload      JSONB NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    received_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sync_events_owner_created_idx ON sync_events (owner_id, created_at);`

	// The no-op update makes RETURNING yield the first receipt on redelivery.
	insertEventSQL = `
INSERT INTO sync_events (delivery_key, owner_id, op, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (delivery_key) DO UPDATE SET delivery_key = EXCLUDED.delivery_key
RETURNING received_at`
)

// Deliverer writes entries into sync_events, deduplicating on delivery_key.
type Deliverer struct {
	db *sql.DB
}

var _ deliver.Deliverer = (*Deliverer)(nil)

// Open connects with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Deliverer, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Deliverer{db: db}, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB) *Deliverer { return &Deliverer{db: db} }

// Bootstrap creates the target table if missing.
func (d *Deliverer) Bootstrap(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, bootstrapSQL)
	return err
}

func (d *Deliverer) Deliver(ctx context.Context, e *model.OutboxEntry) (deliver.Receipt, error) {
	if !e.Operation.IsKnown() {
		return deliver.Receipt{}, deliver.NewPermanentError("unknown operation "+string(e.Operation), nil)
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return deliver.Receipt{}, deliver.NewPermanentError("encode payload", err)
	}
	var received time.Time
	err = d.db.QueryRowContext(ctx, insertEventSQL, e.DeliveryKey, e.OwnerID, string(e.Operation), payload, e.CreatedAt).Scan(&received)
	if err != nil {
		return deliver.Receipt{}, fmt.Errorf("insert sync event: %w", err)
	}
	return deliver.Receipt{ServerTimestamp: received.UTC()}, nil
}

// HealthPing implements health.HealthPinger.
func (d *Deliverer) HealthPing(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Deliverer) Close() error { return d.db.Close() }
