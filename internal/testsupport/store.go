package testsupport

import (
	"context"
	"testing"

	"shotqueue/internal/config"
	"shotqueue/internal/logging"
	"shotqueue/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTrend records a trend with the given video id and title and returns its id.
func NewTrend(t testing.TB, store *queue.Store, videoID, title string) int64 {
	t.Helper()

	id, err := store.InsertTrend(context.Background(), queue.Trend{VideoID: videoID, Title: title})
	if err != nil {
		t.Fatalf("store.InsertTrend: %v", err)
	}
	if id == 0 {
		t.Fatalf("store.InsertTrend: video %q already recorded", videoID)
	}
	return id
}

// NewJob enqueues a job for trendID at the given priority and returns its id.
func NewJob(t testing.TB, store *queue.Store, trendID int64, priority int) int64 {
	t.Helper()

	id, err := store.CreateJob(context.Background(), trendID, priority)
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return id
}
