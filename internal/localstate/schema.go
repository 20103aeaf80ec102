package localstate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/orbitsound/orbitsound-sync/internal/localstate/migrations"
)

// EnsureSchema applies the embedded migrations. Safe to call on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the latest applied migration version.
func SchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}
	return provider.GetDBVersion(ctx)
}
