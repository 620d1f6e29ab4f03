package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats returns dashboard counts. Each count is an independent query, so the
// numbers are a point-in-time snapshot rather than one consistent view.
func (s *Store) Stats(ctx context.Context) (DashboardStats, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats DashboardStats
	counts := []struct {
		name  string
		query string
		args  []any
		dest  *int64
	}{
		{"trends", `SELECT COUNT(1) FROM trends`, nil, &stats.TotalTrends},
		{"pending jobs", `SELECT COUNT(1) FROM jobs WHERE status = ?`, []any{StatusPending}, &stats.PendingJobs},
		{"completed jobs", `SELECT COUNT(1) FROM jobs WHERE status = ?`, []any{StatusDone}, &stats.CompletedJobs},
		{"failed jobs", `SELECT COUNT(1) FROM jobs WHERE status = ?`, []any{StatusFailed}, &stats.FailedJobs},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return DashboardStats{}, fmt.Errorf("count %s: %w", c.name, err)
		}
	}
	return stats, nil
}

// StatusCounts returns the number of jobs in each status. Statuses with no
// jobs are omitted.
func (s *Store) StatusCounts(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		status, _ := DecodeStatus(raw)
		counts[status] += count
	}
	return counts, rows.Err()
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	s.mu.Lock()
	defer s.mu.Unlock()

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true

	present := make(map[string]struct{}, len(expectedTables))
	rows, err := s.db.QueryContext(connCtx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("list tables: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			health.Error = err.Error()
			return health, fmt.Errorf("scan table name: %w", err)
		}
		present[name] = struct{}{}
	}
	rows.Close()
	for _, table := range expectedTables {
		if _, ok := present[table]; !ok {
			health.MissingTables = append(health.MissingTables, table)
		}
	}
	if len(health.MissingTables) > 0 {
		health.Error = "missing tables: " + strings.Join(health.MissingTables, ", ")
		return health, nil
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = integrity == "ok"
	if !health.IntegrityCheck {
		health.Error = "integrity check: " + integrity
	}

	if err := s.db.QueryRowContext(connCtx, `SELECT version FROM schema_version LIMIT 1`).Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}
	if err := s.db.QueryRowContext(connCtx, `SELECT COUNT(1) FROM jobs`).Scan(&health.TotalJobs); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count jobs: %w", err)
	}
	return health, nil
}

// SchemaVersion reports the version the store writes.
func SchemaVersion() int { return schemaVersion }
