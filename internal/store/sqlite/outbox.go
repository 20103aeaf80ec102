package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

type outbox struct{ db *sql.DB }

func (o *outbox) Enqueue(ctx context.Context, e *model.OutboxEntry) (*model.OutboxEntry, error) {
	out := *e
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now()
	}
	if err := writeOutbox(ctx, o.db, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (o *outbox) ListUnsynced(ctx context.Context, req model.ListUnsyncedRequest) ([]*model.OutboxEntry, error) {
	b := sq.Select("id", "owner_id", "delivery_key", "op", "payload", "created_at").
		From("outbox").
		Where(sq.Eq{"status": string(model.SyncPending)}).
		OrderBy("created_at ASC", "id ASC")
	if req.OwnerID != "" {
		b = b.Where(sq.Eq{"owner_id": req.OwnerID})
	}
	if len(req.ExcludeOwners) > 0 {
		b = b.Where(sq.NotEq{"owner_id": req.ExcludeOwners})
	}
	if req.Limit > 0 {
		b = b.Limit(uint64(req.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.OutboxEntry
	for rows.Next() {
		var e model.OutboxEntry
		var op, raw string
		var created int64
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.DeliveryKey, &op, &raw, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Payload); err != nil {
			return nil, fmt.Errorf("outbox %d: decode payload: %w", e.ID, err)
		}
		e.Operation = model.OperationType(op)
		e.CreatedAt = fromMillis(created)
		e.Status = model.SyncPending
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (o *outbox) MarkSynced(ctx context.Context, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sq.Update("outbox").
		Set("status", string(model.SyncSynced)).
		Set("synced_at", toMillis(at)).
		Where(sq.Eq{"id": ids, "status": string(model.SyncPending)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return execCount(ctx, o.db, query, args)
}

func (o *outbox) PendingCount(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(1)").
		From("outbox").
		Where(sq.Eq{"status": string(model.SyncPending)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := o.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (o *outbox) PurgeSyncedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("outbox").
		Where(sq.Eq{"status": string(model.SyncSynced)}).
		Where(sq.Lt{"created_at": toMillis(cutoff)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return execCount(ctx, o.db, query, args)
}
