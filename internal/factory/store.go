package factory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/store/sqlite"
)

// NewStore opens the local SQLite store and applies pending migrations.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlite.Store, error) {
	st, err := sqlite.OpenStore(ctx, cfg.DataPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.DataPath).Msg("local store ready")
	return st, nil
}
