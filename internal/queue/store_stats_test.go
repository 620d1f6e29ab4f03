package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shotqueue/internal/queue"
	"shotqueue/internal/testsupport"
)

func TestStatsEmptyStore(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats != (queue.DashboardStats{}) {
		t.Fatalf("expected zero stats, got %#v", stats)
	}
}

func TestStatsCountsTrendsAndJobs(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewTrend(t, store, "a", "A")
	second := testsupport.NewTrend(t, store, "b", "B")
	testsupport.NewTrend(t, store, "c", "C")

	testsupport.NewJob(t, store, first, 0)
	finished := testsupport.NewJob(t, store, second, 0)
	if err := store.UpdateStatus(ctx, finished, queue.StatusGenerating, ""); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if err := store.UpdateStatus(ctx, finished, queue.StatusDone, ""); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := queue.DashboardStats{TotalTrends: 3, PendingJobs: 1, CompletedJobs: 1, FailedJobs: 0}
	if stats != want {
		t.Fatalf("expected %#v, got %#v", want, stats)
	}
}

func TestStatusCounts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	trendID := testsupport.NewTrend(t, store, "vid", "Title")

	testsupport.NewJob(t, store, trendID, 0)
	testsupport.NewJob(t, store, trendID, 0)
	failed := testsupport.NewJob(t, store, trendID, 0)
	if err := store.UpdateStatus(ctx, failed, queue.StatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	counts, err := store.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("StatusCounts failed: %v", err)
	}
	if counts[queue.StatusPending] != 2 || counts[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if _, ok := counts[queue.StatusDone]; ok {
		t.Fatalf("expected statuses without jobs to be omitted: %v", counts)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if health.TotalJobs != 3 || health.Error != "" {
		t.Fatalf("unexpected health: %#v", health)
	}
}

func TestOutputsLog(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	jobID := testsupport.NewJob(t, store, testsupport.NewTrend(t, store, "vid", "Title"), 0)

	duration := 58.5
	shortID, err := store.RecordShort(ctx, queue.Short{
		JobID:       jobID,
		Script:      "hook, body, outro",
		VideoPath:   "/tmp/out.mp4",
		DurationSec: &duration,
	})
	if err != nil {
		t.Fatalf("RecordShort failed: %v", err)
	}
	if err := store.MarkShortSent(ctx, shortID); err != nil {
		t.Fatalf("MarkShortSent failed: %v", err)
	}

	shorts, err := store.ShortsForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("ShortsForJob failed: %v", err)
	}
	if len(shorts) != 1 {
		t.Fatalf("expected 1 short, got %d", len(shorts))
	}
	short := shorts[0]
	if short.ID != shortID || !short.TelegramSent || short.AudioPath != "" || short.DurationSec == nil || *short.DurationSec != 58.5 {
		t.Fatalf("unexpected short: %#v", short)
	}

	queue.SetClock(store, steppingClock(baseTime, time.Second))
	if _, err := store.RecordMetric(ctx, jobID, "script", 1500*time.Millisecond); err != nil {
		t.Fatalf("RecordMetric failed: %v", err)
	}
	if _, err := store.RecordMetric(ctx, jobID, "render", 42*time.Second); err != nil {
		t.Fatalf("RecordMetric failed: %v", err)
	}
	metrics, err := store.MetricsForJob(ctx, jobID)
	if err != nil {
		t.Fatalf("MetricsForJob failed: %v", err)
	}
	if len(metrics) != 2 || metrics[0].Stage != "script" || metrics[0].Duration != 1500*time.Millisecond || metrics[1].Stage != "render" {
		t.Fatalf("unexpected metrics: %#v", metrics)
	}
	if !metrics[0].RecordedAt.Before(metrics[1].RecordedAt) {
		t.Fatalf("expected metrics in recording order")
	}
}

func TestOutputsRequireKnownJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.RecordShort(ctx, queue.Short{JobID: 77}); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := store.RecordMetric(ctx, 77, "render", time.Second); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := store.RecordMetric(ctx, 77, " ", time.Second); err == nil {
		t.Fatal("expected error for empty stage")
	}
	if err := store.MarkShortSent(ctx, 5); !errors.Is(err, queue.ErrShortNotFound) {
		t.Fatalf("expected ErrShortNotFound, got %v", err)
	}
}
