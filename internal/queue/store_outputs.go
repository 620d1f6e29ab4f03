package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shotqueue/internal/logging"
)

// RecordShort stores an artifact produced for a job and returns its id.
func (s *Store) RecordShort(ctx context.Context, short Short) (int64, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shorts (job_id, script, audio_path, video_path, duration_sec, telegram_sent)
         VALUES (?, ?, ?, ?, ?, ?)`,
		short.JobID,
		nullableString(short.Script),
		nullableString(short.AudioPath),
		nullableString(short.VideoPath),
		nullableFloat64(short.DurationSec),
		boolToInt(short.TelegramSent),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: %d", ErrJobNotFound, short.JobID)
		}
		return 0, fmt.Errorf("insert short: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert short id: %w", err)
	}
	s.logger.Debug("short recorded",
		logging.Int64(logging.FieldJobID, short.JobID),
		logging.Int64("short_id", id),
	)
	return id, nil
}

// ShortsForJob returns the shorts recorded for jobID in insertion order.
func (s *Store) ShortsForJob(ctx context.Context, jobID int64) ([]*Short, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, script, audio_path, video_path, duration_sec, telegram_sent
         FROM shorts WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list shorts: %w", err)
	}
	defer rows.Close()

	var shorts []*Short
	for rows.Next() {
		var (
			short    Short
			script   sql.NullString
			audio    sql.NullString
			video    sql.NullString
			duration sql.NullFloat64
			sent     bool
		)
		if err := rows.Scan(&short.ID, &short.JobID, &script, &audio, &video, &duration, &sent); err != nil {
			return nil, fmt.Errorf("scan short: %w", err)
		}
		short.Script = script.String
		short.AudioPath = audio.String
		short.VideoPath = video.String
		if duration.Valid {
			d := duration.Float64
			short.DurationSec = &d
		}
		short.TelegramSent = sent
		shorts = append(shorts, &short)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shorts: %w", err)
	}
	return shorts, nil
}

// MarkShortSent flags a short as delivered.
func (s *Store) MarkShortSent(ctx context.Context, shortID int64) error {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE shorts SET telegram_sent = 1 WHERE id = ?`, shortID)
	if err != nil {
		return fmt.Errorf("mark short sent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark short sent rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrShortNotFound, shortID)
	}
	return nil
}

// RecordMetric appends a stage timing sample for a job.
func (s *Store) RecordMetric(ctx context.Context, jobID int64, stage string, duration time.Duration) (int64, error) {
	ctx = ensureContext(ctx)
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return 0, errors.New("metric stage is required")
	}
	if duration < 0 {
		return 0, fmt.Errorf("metric duration %s is negative", duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics (job_id, stage, duration_ms, recorded_at) VALUES (?, ?, ?, ?)`,
		jobID, stage, duration.Milliseconds(), formatTimestamp(s.now()),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: %d", ErrJobNotFound, jobID)
		}
		return 0, fmt.Errorf("insert metric: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert metric id: %w", err)
	}
	s.jobLogger(ctx, jobID, "").Debug("stage metric recorded",
		logging.String("metric_stage", stage),
		logging.Duration("duration", duration),
	)
	return id, nil
}

// MetricsForJob returns the timing samples recorded for jobID, oldest first.
func (s *Store) MetricsForJob(ctx context.Context, jobID int64) ([]*Metric, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, stage, duration_ms, recorded_at
         FROM metrics WHERE job_id = ? ORDER BY recorded_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*Metric
	for rows.Next() {
		var (
			metric     Metric
			durationMS int64
			recordedAt sql.NullString
		)
		if err := rows.Scan(&metric.ID, &metric.JobID, &metric.Stage, &durationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		metric.Duration = time.Duration(durationMS) * time.Millisecond
		metric.RecordedAt, _ = DecodeTimestamp(recordedAt.String, s.now())
		metrics = append(metrics, &metric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return metrics, nil
}
