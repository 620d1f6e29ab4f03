package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shotqueue/internal/logging"
)

const jobColumns = `id, trend_id, status, priority, retry_count, error_msg, created_at, started_at, finished_at`

const dispatchOrder = `priority DESC, created_at ASC, id ASC`

var dispatchSelect = `SELECT ` + qualified("j", jobColumns) + `, ` + qualified("t", trendColumns) + `
         FROM jobs j JOIN trends t ON t.id = j.trend_id`

// CreateJob enqueues a new pending job for trendID. Jobs are never
// deduplicated; the same trend may be queued more than once.
func (s *Store) CreateJob(ctx context.Context, trendID int64, priority int) (int64, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (trend_id, status, priority, created_at) VALUES (?, ?, ?, ?)`,
		trendID, StatusPending, priority, formatTimestamp(s.now()),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownTrend, trendID)
		}
		return 0, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert job id: %w", err)
	}
	s.logger.Debug("job created",
		logging.Int64(logging.FieldJobID, id),
		logging.Int64("trend_id", trendID),
		logging.Int("priority", priority),
	)
	return id, nil
}

// NextPending returns the highest-priority, oldest pending job together with
// its trend, or nil when the queue is empty. It does not change the job's
// status, so two callers may observe the same job; use ClaimNext when the
// caller intends to process it.
func (s *Store) NextPending(ctx context.Context) (*Dispatch, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		dispatchSelect+` WHERE j.status = ?
         ORDER BY j.priority DESC, j.created_at ASC, j.id ASC
         LIMIT 1`,
		StatusPending,
	)
	return s.scanDispatch(row)
}

// JobByID returns the job with the given id, or nil when none exists.
func (s *Store) JobByID(ctx context.Context, id int64) (*Job, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// ListJobs returns jobs in dispatch order, optionally filtered by status.
func (s *Store) ListJobs(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	for _, status := range statuses {
		if _, ok := ParseStatus(string(status)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY ` + dispatchOrder

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func qualified(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

type jobFields struct {
	job        Job
	status     string
	errorMsg   sql.NullString
	createdAt  sql.NullString
	startedAt  sql.NullString
	finishedAt sql.NullString
}

func (f *jobFields) dest() []any {
	return []any{
		&f.job.ID, &f.job.TrendID, &f.status, &f.job.Priority, &f.job.RetryCount,
		&f.errorMsg, &f.createdAt, &f.startedAt, &f.finishedAt,
	}
}

func (s *Store) decodeJob(f *jobFields) *Job {
	job := f.job
	job.Status, job.StatusDefaulted = DecodeStatus(f.status)
	if job.StatusDefaulted {
		s.logger.Warn("job has unknown status; treating as pending",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("value", f.status),
		)
	}
	job.ErrorMessage = f.errorMsg.String
	var defaulted bool
	job.CreatedAt, defaulted = DecodeTimestamp(f.createdAt.String, s.now())
	if defaulted {
		s.logger.Warn("job created_at is not a valid timestamp; using current time",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("value", f.createdAt.String),
		)
	}
	job.StartedAt = decodeOptionalTimestamp(f.startedAt)
	job.FinishedAt = decodeOptionalTimestamp(f.finishedAt)
	return &job
}

func (s *Store) scanJob(sc scanner) (*Job, error) {
	var f jobFields
	if err := sc.Scan(f.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return s.decodeJob(&f), nil
}

func (s *Store) scanDispatch(row *sql.Row) (*Dispatch, error) {
	var (
		jf jobFields
		tf trendFields
	)
	if err := row.Scan(append(jf.dest(), tf.dest()...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan dispatch: %w", err)
	}
	return &Dispatch{Job: *s.decodeJob(&jf), Trend: *s.decodeTrend(&tf)}, nil
}
