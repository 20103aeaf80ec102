package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

type cacheEntries struct{ db *sql.DB }

func (c *cacheEntries) Get(ctx context.Context, domain model.Domain, key string) (*model.CacheEntry, error) {
	query, args, err := sq.Select("owner_id", "payload", "schema_version", "created_at", "expires_at").
		From("cache_entries").
		Where(sq.Eq{"domain": string(domain), "cache_key": key}).
		ToSql()
	if err != nil {
		return nil, err
	}
	out := model.CacheEntry{Domain: domain, Key: key}
	var created, expires int64
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&out.OwnerID, &out.Payload, &out.SchemaVersion, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.CreatedAt = fromMillis(created)
	out.ExpiresAt = fromMillis(expires)
	return &out, nil
}

func (c *cacheEntries) Put(ctx context.Context, e *model.CacheEntry) error {
	query, args, err := sq.Insert("cache_entries").
		Columns("domain", "cache_key", "owner_id", "payload", "schema_version", "created_at", "expires_at").
		Values(string(e.Domain), e.Key, e.OwnerID, e.Payload, e.SchemaVersion, toMillis(e.CreatedAt), toMillis(e.ExpiresAt)).
		Suffix(`ON CONFLICT(domain, cache_key) DO UPDATE SET
			owner_id = excluded.owner_id,
			payload = excluded.payload,
			schema_version = excluded.schema_version,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, query, args...)
	return err
}

func (c *cacheEntries) Delete(ctx context.Context, domain model.Domain, key string) error {
	query, args, err := sq.Delete("cache_entries").
		Where(sq.Eq{"domain": string(domain), "cache_key": key}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx, query, args...)
	return err
}

func (c *cacheEntries) DeleteExpiredBefore(ctx context.Context, domain model.Domain, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("cache_entries").
		Where(sq.Eq{"domain": string(domain)}).
		Where(sq.Lt{"expires_at": toMillis(cutoff)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return execCount(ctx, c.db, query, args)
}

func (c *cacheEntries) DeleteOwner(ctx context.Context, domain model.Domain, ownerID string) (int64, error) {
	b := sq.Delete("cache_entries").Where(sq.Eq{"owner_id": ownerID})
	if domain != "" {
		b = b.Where(sq.Eq{"domain": string(domain)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	return execCount(ctx, c.db, query, args)
}

func execCount(ctx context.Context, q execer, query string, args []interface{}) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
