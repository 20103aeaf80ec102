package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// AchievementService unlocks badges. An unlock is stored with its outbox
// entry atomically; unlocking twice is a no-op.
type AchievementService struct {
	store store.Achievements
	queue *outbox.Queue
	now   func() time.Time
	log   zerolog.Logger
}

func NewAchievementService(st store.Achievements, queue *outbox.Queue, now func() time.Time, log zerolog.Logger) *AchievementService {
	if now == nil {
		now = time.Now
	}
	return &AchievementService{store: st, queue: queue, now: now, log: log}
}

// Unlock reports whether the achievement was newly unlocked.
func (s *AchievementService) Unlock(ctx context.Context, ownerID, achievementID string) (bool, error) {
	if err := requireOwner(ownerID); err != nil {
		return false, err
	}
	achievementID = strings.TrimSpace(achievementID)
	if achievementID == "" {
		return false, invalid("achievement id is required")
	}
	entry, err := s.store.Unlock(ctx, &model.Achievement{
		OwnerID:       ownerID,
		AchievementID: achievementID,
		UnlockedAt:    s.now(),
	})
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if s.queue != nil {
		s.queue.Recorded(ctx, entry)
	}
	s.log.Info().Str("owner_id", ownerID).Str("achievement", achievementID).Msg("achievement unlocked")
	return true, nil
}

func (s *AchievementService) List(ctx context.Context, ownerID string) ([]*model.Achievement, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, ownerID)
}
