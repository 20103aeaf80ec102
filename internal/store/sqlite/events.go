package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

type events struct{ db *sql.DB }

func (e *events) RecordLogin(ctx context.Context, ev *model.LoginEvent) error {
	query, args, err := sq.Insert("login_events").
		Columns("owner_id", "identity", "success", "ts").
		Values(ev.OwnerID, ev.Identity, ev.Success, toMillis(ev.Timestamp)).
		ToSql()
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, query, args...)
	return err
}

func (e *events) RecordSearch(ctx context.Context, ev *model.SearchEvent) error {
	query, args, err := sq.Insert("search_events").
		Columns("owner_id", "query", "ts").
		Values(ev.OwnerID, ev.Query, toMillis(ev.Timestamp)).
		ToSql()
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, query, args...)
	return err
}

func (e *events) Logins(ctx context.Context, ownerID string, since time.Time) ([]model.LoginEvent, error) {
	query, args, err := sq.Select("identity", "success", "ts").
		From("login_events").
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.GtOrEq{"ts": toMillis(since)}).
		OrderBy("ts ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.LoginEvent
	for rows.Next() {
		ev := model.LoginEvent{OwnerID: ownerID}
		var ts int64
		if err := rows.Scan(&ev.Identity, &ev.Success, &ts); err != nil {
			return nil, err
		}
		ev.Timestamp = fromMillis(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Operations reads queued writes (synced or not) as activity events.
func (e *events) Operations(ctx context.Context, ownerID string, since time.Time) ([]model.OperationEvent, error) {
	query, args, err := sq.Select("op", "created_at").
		From("outbox").
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.GtOrEq{"created_at": toMillis(since)}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.OperationEvent
	for rows.Next() {
		ev := model.OperationEvent{OwnerID: ownerID}
		var op string
		var ts int64
		if err := rows.Scan(&op, &ts); err != nil {
			return nil, err
		}
		ev.Operation = model.OperationType(op)
		ev.Timestamp = fromMillis(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (e *events) Searches(ctx context.Context, ownerID string, since time.Time) ([]model.SearchEvent, error) {
	query, args, err := sq.Select("query", "ts").
		From("search_events").
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.GtOrEq{"ts": toMillis(since)}).
		OrderBy("ts ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.SearchEvent
	for rows.Next() {
		ev := model.SearchEvent{OwnerID: ownerID}
		var ts int64
		if err := rows.Scan(&ev.Query, &ts); err != nil {
			return nil, err
		}
		ev.Timestamp = fromMillis(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}
