package services

import (
	"context"
	"strings"
	"time"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outbox"
)

const maxMoodNote = 280

// MoodService records mood check-ins. Moods live only in the outbox until
// the remote confirms them.
type MoodService struct {
	queue *outbox.Queue
	now   func() time.Time
}

func NewMoodService(queue *outbox.Queue, now func() time.Time) *MoodService {
	if now == nil {
		now = time.Now
	}
	return &MoodService{queue: queue, now: now}
}

// Record queues an update_mood write.
func (s *MoodService) Record(ctx context.Context, ownerID, mood, note string) (*model.OutboxEntry, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	mood = strings.ToLower(strings.TrimSpace(mood))
	if mood == "" {
		return nil, invalid("mood is required")
	}
	if len(note) > maxMoodNote {
		return nil, invalid("note exceeds %d characters", maxMoodNote)
	}
	return s.queue.Enqueue(ctx, ownerID, model.OpUpdateMood, map[string]interface{}{
		"ownerId":    ownerID,
		"mood":       mood,
		"note":       note,
		"recordedAt": s.now().UnixMilli(),
	})
}
