package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shotqueue/internal/logging"
)

const trendColumns = `id, video_id, title, channel, views, category, fetched_at`

// InsertTrend records a trend unless its video id is already known. It
// returns the new row id, or 0 when the video id existed and the stored row
// was left untouched.
func (s *Store) InsertTrend(ctx context.Context, trend Trend) (int64, error) {
	ctx = ensureContext(ctx)
	videoID := strings.TrimSpace(trend.VideoID)
	title := strings.TrimSpace(trend.Title)
	if videoID == "" || title == "" {
		return 0, fmt.Errorf("%w: video id and title are required", ErrInvalidTrend)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fetchedAt := trend.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO trends (video_id, title, channel, views, category, fetched_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		videoID,
		title,
		nullableString(trend.Channel),
		nullableInt64(trend.Views),
		nullableString(trend.Category),
		formatTimestamp(fetchedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert trend: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert trend rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Debug("trend already recorded", logging.String("video_id", videoID))
		return 0, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert trend id: %w", err)
	}
	return id, nil
}

// TrendByVideoID returns the trend recorded for videoID, or nil when none exists.
func (s *Store) TrendByVideoID(ctx context.Context, videoID string) (*Trend, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trendColumns+` FROM trends WHERE video_id = ?`, strings.TrimSpace(videoID))
	return s.scanTrendRow(row)
}

// TrendByID returns the trend with the given id, or nil when none exists.
func (s *Store) TrendByID(ctx context.Context, id int64) (*Trend, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+trendColumns+` FROM trends WHERE id = ?`, id)
	return s.scanTrendRow(row)
}

// ListTrends returns trends newest first. A non-positive limit returns all rows.
func (s *Store) ListTrends(ctx context.Context, limit int) ([]*Trend, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + trendColumns + ` FROM trends ORDER BY fetched_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}
	defer rows.Close()

	var trends []*Trend
	for rows.Next() {
		trend, err := s.scanTrend(rows)
		if err != nil {
			return nil, err
		}
		trends = append(trends, trend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trends: %w", err)
	}
	return trends, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanTrendRow(row *sql.Row) (*Trend, error) {
	trend, err := s.scanTrend(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return trend, err
}

type trendFields struct {
	trend     Trend
	channel   sql.NullString
	views     sql.NullInt64
	category  sql.NullString
	fetchedAt sql.NullString
}

func (f *trendFields) dest() []any {
	return []any{
		&f.trend.ID, &f.trend.VideoID, &f.trend.Title,
		&f.channel, &f.views, &f.category, &f.fetchedAt,
	}
}

func (s *Store) decodeTrend(f *trendFields) *Trend {
	trend := f.trend
	trend.Channel = f.channel.String
	trend.Category = f.category.String
	if f.views.Valid {
		v := f.views.Int64
		trend.Views = &v
	}
	trend.FetchedAt, trend.FetchedAtDefaulted = DecodeTimestamp(f.fetchedAt.String, s.now())
	if trend.FetchedAtDefaulted {
		s.logger.Warn("trend fetched_at is not a valid timestamp; using current time",
			logging.Int64("trend_id", trend.ID),
			logging.String("value", f.fetchedAt.String),
		)
	}
	return &trend
}

func (s *Store) scanTrend(sc scanner) (*Trend, error) {
	var f trendFields
	if err := sc.Scan(f.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan trend: %w", err)
	}
	return s.decodeTrend(&f), nil
}
