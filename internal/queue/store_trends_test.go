package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shotqueue/internal/queue"
	"shotqueue/internal/testsupport"
)

func TestInsertTrendFirstWriteWins(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	views := int64(1200)
	id, err := store.InsertTrend(ctx, queue.Trend{VideoID: "abc", Title: "first", Channel: "chan", Views: &views})
	if err != nil {
		t.Fatalf("InsertTrend failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected trend id to be assigned")
	}

	dup, err := store.InsertTrend(ctx, queue.Trend{VideoID: "abc", Title: "second"})
	if err != nil {
		t.Fatalf("duplicate InsertTrend failed: %v", err)
	}
	if dup != 0 {
		t.Fatalf("expected 0 for duplicate video id, got %d", dup)
	}

	trend, err := store.TrendByVideoID(ctx, "abc")
	if err != nil {
		t.Fatalf("TrendByVideoID failed: %v", err)
	}
	if trend == nil || trend.ID != id || trend.Title != "first" {
		t.Fatalf("expected first write to win, got %#v", trend)
	}
	if trend.Channel != "chan" || trend.Views == nil || *trend.Views != 1200 || trend.Category != "" {
		t.Fatalf("unexpected optional fields: %#v", trend)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalTrends != 1 {
		t.Fatalf("expected 1 trend, got %d", stats.TotalTrends)
	}
}

func TestInsertTrendRequiresVideoIDAndTitle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, trend := range []queue.Trend{{Title: "no id"}, {VideoID: "no-title"}, {VideoID: "  ", Title: " "}} {
		if _, err := store.InsertTrend(ctx, trend); !errors.Is(err, queue.ErrInvalidTrend) {
			t.Fatalf("expected ErrInvalidTrend for %#v, got %v", trend, err)
		}
	}
}

func TestInsertTrendTrimsDedupKey(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	id, err := store.InsertTrend(ctx, queue.Trend{VideoID: "  xyz ", Title: " Padded title "})
	if err != nil || id == 0 {
		t.Fatalf("InsertTrend failed: id=%d err=%v", id, err)
	}
	dup, err := store.InsertTrend(ctx, queue.Trend{VideoID: "xyz", Title: "other"})
	if err != nil {
		t.Fatalf("duplicate InsertTrend failed: %v", err)
	}
	if dup != 0 {
		t.Fatalf("expected trimmed video id to dedupe, got id %d", dup)
	}

	trend, err := store.TrendByVideoID(ctx, "xyz")
	if err != nil {
		t.Fatalf("TrendByVideoID failed: %v", err)
	}
	if trend == nil || trend.ID != id || trend.Title != "Padded title" {
		t.Fatalf("expected trimmed first write, got %#v", trend)
	}
}

func TestInsertTrendFetchedAt(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	queue.SetClock(store, fixedClock(baseTime))
	ctx := context.Background()

	if _, err := store.InsertTrend(ctx, queue.Trend{VideoID: "stamped", Title: "t"}); err != nil {
		t.Fatalf("InsertTrend failed: %v", err)
	}
	explicit := time.Date(2024, 12, 31, 23, 59, 59, 123456789, time.UTC)
	if _, err := store.InsertTrend(ctx, queue.Trend{VideoID: "explicit", Title: "t", FetchedAt: explicit}); err != nil {
		t.Fatalf("InsertTrend failed: %v", err)
	}

	stamped, err := store.TrendByVideoID(ctx, "stamped")
	if err != nil {
		t.Fatalf("TrendByVideoID failed: %v", err)
	}
	if !stamped.FetchedAt.Equal(baseTime) || stamped.FetchedAtDefaulted {
		t.Fatalf("expected fetched_at %v, got %#v", baseTime, stamped)
	}
	kept, err := store.TrendByVideoID(ctx, "explicit")
	if err != nil {
		t.Fatalf("TrendByVideoID failed: %v", err)
	}
	if !kept.FetchedAt.Equal(explicit) {
		t.Fatalf("expected fetched_at %v, got %v", explicit, kept.FetchedAt)
	}
}

func TestTrendLookupsMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	byVideo, err := store.TrendByVideoID(ctx, "nope")
	if err != nil {
		t.Fatalf("TrendByVideoID failed: %v", err)
	}
	if byVideo != nil {
		t.Fatalf("expected nil trend, got %#v", byVideo)
	}
	byID, err := store.TrendByID(ctx, 99)
	if err != nil {
		t.Fatalf("TrendByID failed: %v", err)
	}
	if byID != nil {
		t.Fatalf("expected nil trend, got %#v", byID)
	}
}

func TestListTrendsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	useSteppingClock(store)
	ctx := context.Background()

	for _, vid := range []string{"a", "b", "c"} {
		testsupport.NewTrend(t, store, vid, "title "+vid)
	}

	trends, err := store.ListTrends(ctx, 0)
	if err != nil {
		t.Fatalf("ListTrends failed: %v", err)
	}
	if len(trends) != 3 || trends[0].VideoID != "c" || trends[2].VideoID != "a" {
		t.Fatalf("unexpected order: %v", videoIDs(trends))
	}

	limited, err := store.ListTrends(ctx, 2)
	if err != nil {
		t.Fatalf("ListTrends failed: %v", err)
	}
	if len(limited) != 2 || limited[0].VideoID != "c" || limited[1].VideoID != "b" {
		t.Fatalf("unexpected limited order: %v", videoIDs(limited))
	}

	byID, err := store.TrendByID(ctx, trends[1].ID)
	if err != nil {
		t.Fatalf("TrendByID failed: %v", err)
	}
	if byID == nil || byID.VideoID != "b" {
		t.Fatalf("unexpected trend: %#v", byID)
	}
}

func videoIDs(trends []*queue.Trend) []string {
	ids := make([]string, 0, len(trends))
	for _, trend := range trends {
		ids = append(ids, trend.VideoID)
	}
	return ids
}
