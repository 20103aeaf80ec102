package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()
	ownerID := "u-" + uuid.New().String()
	base := time.Now().UTC().Truncate(time.Millisecond)

	// Cache entries
	ce := &model.CacheEntry{
		Domain:        model.DomainWeather,
		Key:           "cell",
		OwnerID:       ownerID,
		Payload:       []byte(`{"v":1,"data":{}}`),
		SchemaVersion: 1,
		CreatedAt:     base,
		ExpiresAt:     base.Add(time.Minute),
	}
	if err := s.Cache().Put(ctx, ce); err != nil {
		t.Fatalf("PutCache: %v", err)
	}
	if got, err := s.Cache().Get(ctx, model.DomainWeather, "cell"); err != nil || got.OwnerID != ownerID || !got.ExpiresAt.Equal(ce.ExpiresAt) {
		t.Fatalf("GetCache: got=%v err=%v", got, err)
	}
	if _, err := s.Cache().Get(ctx, model.DomainLibrary, "cell"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetCache other domain: want ErrNotFound, got %v", err)
	}
	if n, err := s.Cache().DeleteExpiredBefore(ctx, model.DomainWeather, base); err != nil || n != 0 {
		t.Fatalf("DeleteExpiredBefore(early): n=%d err=%v", n, err)
	}
	if n, err := s.Cache().DeleteExpiredBefore(ctx, model.DomainWeather, base.Add(2*time.Minute)); err != nil || n != 1 {
		t.Fatalf("DeleteExpiredBefore: n=%d err=%v", n, err)
	}

	// Outbox
	e1, err := s.Outbox().Enqueue(ctx, &model.OutboxEntry{OwnerID: ownerID, Operation: model.OpLikeTrack, Payload: map[string]interface{}{"trackId": "t1"}, CreatedAt: base})
	if err != nil {
		t.Fatalf("Enqueue e1: %v", err)
	}
	if e1.ID == 0 || e1.DeliveryKey == "" || e1.Status != model.SyncPending {
		t.Fatalf("Enqueue e1: unexpected entry %+v", e1)
	}
	e2, err := s.Outbox().Enqueue(ctx, &model.OutboxEntry{OwnerID: ownerID, Operation: model.OpUpdateMood, Payload: map[string]interface{}{"mood": "calm"}, CreatedAt: base})
	if err != nil {
		t.Fatalf("Enqueue e2: %v", err)
	}
	lst, err := s.Outbox().ListUnsynced(ctx, model.ListUnsyncedRequest{OwnerID: ownerID})
	if err != nil || len(lst) != 2 || lst[0].ID != e1.ID || lst[1].ID != e2.ID {
		t.Fatalf("ListUnsynced: n=%d err=%v", len(lst), err)
	}
	if lst[0].Payload["trackId"] != "t1" {
		t.Fatalf("ListUnsynced: payload not preserved: %v", lst[0].Payload)
	}
	if n, err := s.Outbox().MarkSynced(ctx, []int64{e1.ID}, base); err != nil || n != 1 {
		t.Fatalf("MarkSynced: n=%d err=%v", n, err)
	}
	if n, err := s.Outbox().MarkSynced(ctx, []int64{e1.ID}, base); err != nil || n != 0 {
		t.Fatalf("MarkSynced again: n=%d err=%v", n, err)
	}
	if lst, err := s.Outbox().ListUnsynced(ctx, model.ListUnsyncedRequest{OwnerID: ownerID}); err != nil || len(lst) != 1 || lst[0].ID != e2.ID {
		t.Fatalf("ListUnsynced after MarkSynced: n=%d err=%v", len(lst), err)
	}

	// Interests
	if _, err := s.Interests().Get(ctx, ownerID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetInterests empty: want ErrNotFound, got %v", err)
	}
	set, entry, err := s.Interests().Save(ctx, ownerID, []string{"jazz"}, base)
	if err != nil {
		t.Fatalf("SaveInterests: %v", err)
	}
	if set.Version != 1 || !set.NeedsSync || entry == nil || entry.Operation != model.OpUpsertInterests {
		t.Fatalf("SaveInterests: set=%+v entry=%+v", set, entry)
	}
	set2, _, err := s.Interests().Save(ctx, ownerID, []string{"jazz", "ambient"}, base.Add(time.Second))
	if err != nil || set2.Version != 2 {
		t.Fatalf("SaveInterests v2: set=%+v err=%v", set2, err)
	}
	if ok, err := s.Interests().MarkSynced(ctx, ownerID, 1, base); err != nil || ok {
		t.Fatalf("MarkSynced stale version: ok=%v err=%v", ok, err)
	}
	if ok, err := s.Interests().MarkSynced(ctx, ownerID, 2, base); err != nil || !ok {
		t.Fatalf("MarkSynced current version: ok=%v err=%v", ok, err)
	}
	got, err := s.Interests().Get(ctx, ownerID)
	if err != nil || got.NeedsSync || got.Version != 2 || len(got.Interests) != 2 || got.ServerTimestamp == nil {
		t.Fatalf("GetInterests: got=%+v err=%v", got, err)
	}

	// Achievements
	ach := &model.Achievement{OwnerID: ownerID, AchievementID: "first-like", UnlockedAt: base}
	if entry, err := s.Achievements().Unlock(ctx, ach); err != nil || entry == nil {
		t.Fatalf("Unlock: entry=%v err=%v", entry, err)
	}
	if entry, err := s.Achievements().Unlock(ctx, ach); err != nil || entry != nil {
		t.Fatalf("Unlock again: entry=%v err=%v", entry, err)
	}
	if lst, err := s.Achievements().List(ctx, ownerID); err != nil || len(lst) != 1 {
		t.Fatalf("ListAchievements: n=%d err=%v", len(lst), err)
	}

	// Events
	if err := s.Events().RecordLogin(ctx, &model.LoginEvent{OwnerID: ownerID, Identity: "a@b.c", Success: true, Timestamp: base}); err != nil {
		t.Fatalf("RecordLogin: %v", err)
	}
	if err := s.Events().RecordSearch(ctx, &model.SearchEvent{OwnerID: ownerID, Query: "lofi", Timestamp: base}); err != nil {
		t.Fatalf("RecordSearch: %v", err)
	}
	if lst, err := s.Events().Logins(ctx, ownerID, base); err != nil || len(lst) != 1 || !lst[0].Success {
		t.Fatalf("Logins: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Events().Searches(ctx, ownerID, base.Add(time.Second)); err != nil || len(lst) != 0 {
		t.Fatalf("Searches after window: n=%d err=%v", len(lst), err)
	}
	// two enqueued writes, two interest saves, one unlock
	if lst, err := s.Events().Operations(ctx, ownerID, base); err != nil || len(lst) != 5 {
		t.Fatalf("Operations: n=%d err=%v", len(lst), err)
	}

	// Owner-scoped cleanup
	ce.CreatedAt, ce.ExpiresAt = base, base.Add(time.Hour)
	if err := s.Cache().Put(ctx, ce); err != nil {
		t.Fatalf("PutCache again: %v", err)
	}
	if n, err := s.Cache().DeleteOwner(ctx, "", ownerID); err != nil || n != 1 {
		t.Fatalf("DeleteOwner: n=%d err=%v", n, err)
	}
}
