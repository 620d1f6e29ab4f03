package queue_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"shotqueue/internal/logging"
	"shotqueue/internal/queue"
	"shotqueue/internal/testsupport"
)

func TestOpenBootstrapsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("expected path %s, got %s", cfg.DatabasePath(), store.Path())
	}

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("expected readable database, got %#v", health)
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("expected all tables, missing %v", health.MissingTables)
	}
	if !health.IntegrityCheck {
		t.Fatalf("expected integrity check to pass, got %#v", health)
	}
	if health.SchemaVersion != queue.SchemaVersion() {
		t.Fatalf("expected schema version %d, got %d", queue.SchemaVersion(), health.SchemaVersion)
	}
}

func TestReopenPreservesData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := queue.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	trendID, err := store.InsertTrend(ctx, queue.Trend{VideoID: "vid-1", Title: "First"})
	if err != nil {
		t.Fatalf("InsertTrend failed: %v", err)
	}
	if _, err := store.CreateJob(ctx, trendID, 2); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	trend, err := reopened.TrendByVideoID(ctx, "vid-1")
	if err != nil {
		t.Fatalf("TrendByVideoID failed: %v", err)
	}
	if trend == nil || trend.ID != trendID {
		t.Fatalf("expected trend %d after reopen, got %#v", trendID, trend)
	}
	stats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalTrends != 1 || stats.PendingJobs != 1 {
		t.Fatalf("unexpected stats after reopen: %#v", stats)
	}
}

func TestOpenRejectsSecondHolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustOpenStore(t, cfg)

	second, err := queue.Open(cfg, logging.NewNop())
	if err == nil {
		second.Close()
		t.Fatal("expected second open to fail while the store is held")
	}
	if !errors.Is(err, queue.ErrStoreLocked) {
		t.Fatalf("expected ErrStoreLocked, got %v", err)
	}
}

func TestCloseReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := queue.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	testsupport.MustOpenStore(t, cfg)
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")

	store, err := queue.OpenPath(path, queue.Options{})
	if err != nil {
		t.Fatalf("OpenPath failed: %v", err)
	}
	if err := queue.ExecRaw(store, `UPDATE schema_version SET version = 99`); err != nil {
		t.Fatalf("ExecRaw failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := queue.OpenPath(path, queue.Options{})
	if err == nil {
		reopened.Close()
		t.Fatal("expected newer schema version to be rejected")
	}
	if !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	// The failed open must not leave the lock held.
	again, err := queue.OpenPath(path, queue.Options{})
	if err == nil {
		again.Close()
	} else if errors.Is(err, queue.ErrStoreLocked) {
		t.Fatalf("lock leaked after failed open: %v", err)
	}
}

func TestOpenPathRequiresPath(t *testing.T) {
	if _, err := queue.OpenPath("  ", queue.Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := queue.Open(nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
