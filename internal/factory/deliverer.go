package factory

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/deliver/httpdeliver"
	"github.com/orbitsound/orbitsound-sync/internal/deliver/pgdeliver"
	"github.com/orbitsound/orbitsound-sync/internal/health"
)

// Remote is a configured delivery target.
type Remote interface {
	deliver.Deliverer
	health.HealthPinger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewDeliverer builds the outbox delivery target selected by DeliveryMode.
// The returned closer releases its connections.
func NewDeliverer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Remote, io.Closer, error) {
	switch cfg.DeliveryMode {
	case config.DeliveryHTTP:
		log.Info().Str("url", cfg.RemoteURL).Msg("delivering outbox over HTTP")
		return httpdeliver.New(cfg.RemoteURL, cfg.RemoteToken, cfg.RemoteTimeout), nopCloser{}, nil
	case config.DeliveryPostgres:
		d, err := pgdeliver.Open(ctx, cfg.RemoteDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := d.Bootstrap(ctx); err != nil {
			_ = d.Close()
			return nil, nil, fmt.Errorf("bootstrap remote mirror: %w", err)
		}
		log.Info().Msg("delivering outbox to postgres mirror")
		return d, d, nil
	case config.DeliveryNone:
		return nil, nil, fmt.Errorf("no remote configured: set ORBIT_REMOTE_URL or ORBIT_REMOTE_DSN")
	default:
		return nil, nil, fmt.Errorf("unsupported delivery mode %q", cfg.DeliveryMode)
	}
}
