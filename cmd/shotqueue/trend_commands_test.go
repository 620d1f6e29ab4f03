package main

import (
	"encoding/json"
	"errors"
	"testing"

	"shotqueue/internal/services"
)

func TestTrendAddShowList(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "trend", "add", "--video-id", "dQw4w9WgXcQ", "--title", "Never Gonna", "--channel", "Rick", "--views", "1500000")
	requireContains(t, out, "Recorded trend #1 (dQw4w9WgXcQ)")

	out = mustRunCLI(t, env, "trend", "add", "--video-id", "dQw4w9WgXcQ", "--title", "Renamed")
	requireContains(t, out, "already recorded")

	out = mustRunCLI(t, env, "trend", "show", "dQw4w9WgXcQ")
	requireContains(t, out, "Never Gonna")
	requireContains(t, out, "1,500,000")
	requireNotContains(t, out, "Renamed")

	mustRunCLI(t, env, "trend", "add", "--video-id", "second", "--title", "Second")
	out = mustRunCLI(t, env, "trend", "list")
	requireContains(t, out, "dQw4w9WgXcQ")
	requireContains(t, out, "second")

	out = mustRunCLI(t, env, "--json", "trend", "list", "--limit", "1")
	var trends []map[string]any
	if err := json.Unmarshal([]byte(out), &trends); err != nil {
		t.Fatalf("decode trends: %v\n%s", err, out)
	}
	if len(trends) != 1 {
		t.Fatalf("expected 1 trend with --limit 1, got %d", len(trends))
	}
}

func TestTrendAddDuplicateJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRunCLI(t, env, "trend", "add", "--video-id", "abc", "--title", "First")
	out := mustRunCLI(t, env, "--json", "trend", "add", "--video-id", "abc", "--title", "Second")

	var result trendAddResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.Duplicate || result.ID != 0 || result.VideoID != "abc" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestTrendCommandErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"trend", "add", "--video-id", "x"}, env.configPath); err == nil {
		t.Fatal("expected missing --title to fail")
	}
	if _, _, err := runCLI(t, []string{"trend", "add", "--video-id", " ", "--title", "t"}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank video id, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"trend", "show", "missing"}, env.configPath); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	out := mustRunCLI(t, env, "trend", "list")
	requireContains(t, out, "No trends recorded")
}

func TestTrendShowJSONKeepsTitleVerbatim(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRunCLI(t, env, "trend", "add", "--video-id", "cats01", "--title", "Cats & Dogs <live>")

	out := mustRunCLI(t, env, "--json", "trend", "show", "cats01")
	requireContains(t, out, `"Cats & Dogs <live>"`)
	requireNotContains(t, out, `\u0026`)
}
