package main

import (
	"testing"
)

func TestStatsEmptyQueue(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "stats")
	requireContains(t, out, "Trends:")
	requireContains(t, out, "Queue is empty")
}

func TestStatsStatusTable(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "trend", "add", "--video-id", "vid", "--title", "Title")
	mustRunCLI(t, env, "job", "create", "--trend-id", "1")
	mustRunCLI(t, env, "job", "create", "--trend-id", "1")
	mustRunCLI(t, env, "job", "status", "2", "failed", "--error", "boom")

	out := mustRunCLI(t, env, "stats")
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")
	requireNotContains(t, out, "Generating")
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "health")
	requireContains(t, out, env.cfg.DatabasePath())
	requireContains(t, out, "Integrity check:")
	requireContains(t, out, "[OK]")
	requireNotContains(t, out, "[ERROR]")
	requireNotContains(t, out, "Error:")
}
