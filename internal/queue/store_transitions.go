package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shotqueue/internal/logging"
)

// ClaimNext atomically selects the next pending job in dispatch order and
// moves it to stage, stamping started_at. It returns nil when the queue is
// empty. Concurrent claimers never receive the same job.
func (s *Store) ClaimNext(ctx context.Context, stage Status) (*Dispatch, error) {
	ctx = ensureContext(ctx)
	if !stage.IsInProgress() {
		return nil, fmt.Errorf("%w: claim stage %q must be an in-progress status", ErrInvalidStatus, stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var dispatch *Dispatch
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			`UPDATE jobs SET status = ?, started_at = ?
             WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY `+dispatchOrder+` LIMIT 1)
               AND status = ?
             RETURNING id`,
			stage, formatTimestamp(s.now()), StatusPending, StatusPending,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim job: %w", err)
		}
		dispatch, err = s.scanDispatch(tx.QueryRowContext(ctx, dispatchSelect+` WHERE j.id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	if dispatch != nil {
		s.jobLogger(ctx, dispatch.Job.ID, stage).Info("job claimed",
			logging.String("video_id", dispatch.Trend.VideoID),
		)
	}
	return dispatch, nil
}

// UpdateStatus moves a job to status. In-progress statuses stamp started_at;
// terminal statuses stamp finished_at and record errorMessage (empty stores
// NULL). Moving a failed job back to pending resets it for another attempt.
// Transitions outside the job lifecycle return ErrInvalidTransition.
func (s *Store) UpdateStatus(ctx context.Context, jobID int64, status Status, errorMessage string) error {
	ctx = ensureContext(ctx)
	parsed, ok := ParseStatus(string(status))
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	status = parsed

	s.mu.Lock()
	defer s.mu.Unlock()

	var from Status
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, jobID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrJobNotFound, jobID)
		}
		if err != nil {
			return fmt.Errorf("load job status: %w", err)
		}
		from, _ = DecodeStatus(raw)
		if !CanTransition(from, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}

		now := formatTimestamp(s.now())
		var res sql.Result
		switch {
		case status == StatusPending:
			res, err = tx.ExecContext(ctx,
				`UPDATE jobs SET status = ?, retry_count = retry_count + 1,
                     error_msg = NULL, started_at = NULL, finished_at = NULL
                 WHERE id = ? AND status = ?`,
				status, jobID, raw)
		case status.IsInProgress():
			res, err = tx.ExecContext(ctx,
				`UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
				status, now, jobID, raw)
		case status.IsTerminal():
			res, err = tx.ExecContext(ctx,
				`UPDATE jobs SET status = ?, finished_at = ?, error_msg = ? WHERE id = ? AND status = ?`,
				status, now, nullableString(errorMessage), jobID, raw)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		if err != nil {
			return fmt.Errorf("update job status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update job status rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: job %d changed concurrently", ErrInvalidTransition, jobID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger := s.jobLogger(ctx, jobID, status)
	if status == StatusFailed {
		logger.Warn("job failed",
			logging.String("from", string(from)),
			logging.String("error_msg", errorMessage),
		)
		return nil
	}
	logger.Info("job status updated", logging.String("from", string(from)))
	return nil
}

// RetryJob returns a failed job to pending, incrementing retry_count and
// clearing its error and timestamps.
func (s *Store) RetryJob(ctx context.Context, jobID int64) error {
	return s.UpdateStatus(ctx, jobID, StatusPending, "")
}

// ResetInProgress returns jobs left in generating or rendering back to
// pending, typically after a worker crashed mid-job. retry_count is not
// changed. It returns the number of jobs reset.
func (s *Store) ResetInProgress(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, started_at = NULL WHERE status IN (?, ?)`,
		StatusPending, StatusGenerating, StatusRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("reset in-progress jobs: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset in-progress rows affected: %w", err)
	}
	if count > 0 {
		s.logger.Info("reset in-progress jobs", logging.Int64("count", count))
	}
	return count, nil
}
