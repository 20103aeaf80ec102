package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/orbitsound/orbitsound-sync/internal/localstate"
)

// Open opens (or creates) a SQLite database at the given path with WAL journaling.
// Transactions take the write lock up front so read-then-write sequences never
// fail on lock upgrade.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenStore opens the database file, applies migrations and returns a Store.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := localstate.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func nullableMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
