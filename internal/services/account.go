package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
)

// AccountService handles owner lifecycle events that touch every cache domain.
type AccountService struct {
	domains []cache.Managed
	log     zerolog.Logger
}

func NewAccountService(log zerolog.Logger, domains ...cache.Managed) *AccountService {
	return &AccountService{domains: domains, log: log}
}

// Logout drops every cached entry of ownerID. Pending outbox entries are kept
// so queued writes still reach the remote.
func (s *AccountService) Logout(ctx context.Context, ownerID string) (int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return 0, err
	}
	n, err := cache.ClearOwner(ctx, ownerID, s.domains...)
	if err != nil {
		return n, err
	}
	s.log.Info().Str("owner_id", ownerID).Int64("entries", n).Msg("owner caches cleared")
	return n, nil
}
