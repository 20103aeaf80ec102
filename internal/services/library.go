package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbitsound/orbitsound-sync/internal/cache"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
)

// SectionLiked is the library section holding the user's liked tracks.
const SectionLiked = "liked"

// LibraryService serves owner-scoped library sections and records library
// writes (likes, listening) in the outbox.
type LibraryService struct {
	tier   *cache.Tiered[model.LibrarySection]
	source LibrarySource
	queue  *outbox.Queue
	now    func() time.Time
	log    zerolog.Logger
}

func NewLibraryService(tier *cache.Tiered[model.LibrarySection], source LibrarySource, queue *outbox.Queue, now func() time.Time, log zerolog.Logger) *LibraryService {
	if now == nil {
		now = time.Now
	}
	return &LibraryService{tier: tier, source: source, queue: queue, now: now, log: log}
}

// SectionKey is the cache key of one owner's section.
func SectionKey(ownerID, sectionID string) string {
	return cache.OwnerKey(ownerID, "section:"+sectionID)
}

// Section returns one section of ownerID's library.
func (s *LibraryService) Section(ctx context.Context, ownerID, sectionID string, opts ...cache.LookupOption) (cache.Result[model.LibrarySection], error) {
	if err := requireOwner(ownerID); err != nil {
		return cache.Result[model.LibrarySection]{}, err
	}
	sectionID = strings.TrimSpace(sectionID)
	if sectionID == "" {
		return cache.Result[model.LibrarySection]{}, invalid("section id is required")
	}
	return s.tier.Lookup(ctx, ownerID, SectionKey(ownerID, sectionID), func(ctx context.Context) (model.LibrarySection, error) {
		return s.source.FetchLibrarySection(ctx, ownerID, sectionID)
	}, opts...)
}

// LikeTrack queues a like_track write and drops the cached liked section so
// the next read refetches it.
func (s *LibraryService) LikeTrack(ctx context.Context, ownerID, trackID string) (*model.OutboxEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(trackID) == "" {
		return nil, invalid("track id is required")
	}
	e, err := s.queue.Enqueue(ctx, ownerID, model.OpLikeTrack, map[string]interface{}{
		"ownerId": ownerID,
		"trackId": trackID,
		"likedAt": s.now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.tier.Invalidate(ctx, SectionKey(ownerID, SectionLiked)); err != nil {
		return e, err
	}
	return e, nil
}

// LogListening queues a log_activity write for a played track.
func (s *LibraryService) LogListening(ctx context.Context, ownerID, trackID string, seconds int) (*model.OutboxEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(trackID) == "" {
		return nil, invalid("track id is required")
	}
	if seconds < 0 {
		return nil, invalid("listened seconds must not be negative")
	}
	return s.queue.Enqueue(ctx, ownerID, model.OpLogActivity, map[string]interface{}{
		"ownerId":    ownerID,
		"trackId":    trackID,
		"seconds":    seconds,
		"listenedAt": s.now().UnixMilli(),
	})
}

func (s *LibraryService) Tier() *cache.Tiered[model.LibrarySection] { return s.tier }
