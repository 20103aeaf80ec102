package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

type interests struct{ db *sql.DB }

func (i *interests) Get(ctx context.Context, ownerID string) (*model.InterestSet, error) {
	query, args, err := sq.Select("interests", "version", "last_modified", "server_timestamp", "needs_sync").
		From("interests").
		Where(sq.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	out := model.InterestSet{OwnerID: ownerID}
	var raw string
	var modified int64
	var serverTS sql.NullInt64
	err = i.db.QueryRowContext(ctx, query, args...).Scan(&raw, &out.Version, &modified, &serverTS, &out.NeedsSync)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &out.Interests); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}
	out.LastModified = fromMillis(modified)
	out.ServerTimestamp = fromNullMillis(serverTS)
	return &out, nil
}

func (i *interests) Save(ctx context.Context, ownerID string, values []string, at time.Time) (*model.InterestSet, *model.OutboxEntry, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, nil, err
	}

	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM interests WHERE owner_id = ?`, ownerID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, err
	}
	next := current + 1

	query, args, err := sq.Insert("interests").
		Columns("owner_id", "interests", "version", "last_modified", "needs_sync").
		Values(ownerID, string(raw), next, toMillis(at), true).
		Suffix(`ON CONFLICT(owner_id) DO UPDATE SET
			interests = excluded.interests,
			version = excluded.version,
			last_modified = excluded.last_modified,
			needs_sync = 1`).
		ToSql()
	if err != nil {
		return nil, nil, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, nil, err
	}

	entry := &model.OutboxEntry{
		OwnerID:   ownerID,
		Operation: model.OpUpsertInterests,
		Payload: map[string]interface{}{
			"ownerId":      ownerID,
			"interests":    values,
			"version":      next,
			"lastModified": toMillis(at),
		},
		CreatedAt: at,
	}
	if err := writeOutbox(ctx, tx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	set := &model.InterestSet{
		OwnerID:      ownerID,
		Interests:    values,
		Version:      next,
		LastModified: fromMillis(toMillis(at)),
		NeedsSync:    true,
	}
	return set, entry, nil
}

func (i *interests) MarkSynced(ctx context.Context, ownerID string, version int64, serverTS time.Time) (bool, error) {
	query, args, err := sq.Update("interests").
		Set("needs_sync", false).
		Set("server_timestamp", toMillis(serverTS)).
		Where(sq.Eq{"owner_id": ownerID, "version": version}).
		ToSql()
	if err != nil {
		return false, err
	}
	n, err := execCount(ctx, i.db, query, args)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (i *interests) Replace(ctx context.Context, set *model.InterestSet) error {
	values := set.Interests
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	query, args, err := sq.Insert("interests").
		Columns("owner_id", "interests", "version", "last_modified", "server_timestamp", "needs_sync").
		Values(set.OwnerID, string(raw), set.Version, toMillis(set.LastModified), nullableMillis(set.ServerTimestamp), set.NeedsSync).
		Suffix(`ON CONFLICT(owner_id) DO UPDATE SET
			interests = excluded.interests,
			version = excluded.version,
			last_modified = excluded.last_modified,
			server_timestamp = excluded.server_timestamp,
			needs_sync = excluded.needs_sync`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = i.db.ExecContext(ctx, query, args...)
	return err
}
