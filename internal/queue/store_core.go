package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"shotqueue/internal/config"
	"shotqueue/internal/logging"
	"shotqueue/internal/services"
)

// Store manages queue persistence backed by SQLite. All methods are safe for
// concurrent use; each one holds the store mutex for its full duration.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	now    func() time.Time
}

// Options tunes how OpenPath connects to the database.
type Options struct {
	JournalMode   string
	BusyTimeoutMS int
	Logger        *slog.Logger
}

const (
	defaultJournalMode   = "WAL"
	defaultBusyTimeoutMS = 5000
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// jobLogger scopes the store logger to one job so console output carries the
// job header and any correlation id already on ctx.
func (s *Store) jobLogger(ctx context.Context, jobID int64, stage Status) *slog.Logger {
	ctx = services.WithStage(services.WithJobID(ctx, jobID), string(stage))
	return logging.WithContext(ctx, s.logger)
}

// Open initializes or connects to the queue database in the configured data directory.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath(), Options{
		JournalMode:   cfg.Store.JournalMode,
		BusyTimeoutMS: cfg.Store.BusyTimeoutMS,
		Logger:        logger,
	})
}

// OpenPath opens the database at path, takes the process lock, and bootstraps
// the schema. Failure here leaves nothing open.
func OpenPath(path string, opts Options) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	logger := logging.NewComponentLogger(opts.Logger, "queue")

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, lock.Path())
	}

	db, err := sql.Open("sqlite", buildDSN(path, opts))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db, path: path, lock: lock, logger: logger, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	logger.Debug("queue store opened", logging.String("path", path))
	return store, nil
}

// buildDSN carries the pragmas on the DSN so any connection database/sql
// reopens is configured the same way.
func buildDSN(path string, opts Options) string {
	journal := strings.ToUpper(strings.TrimSpace(opts.JournalMode))
	if journal == "" {
		journal = defaultJournalMode
	}
	busy := opts.BusyTimeoutMS
	if busy <= 0 {
		busy = defaultBusyTimeoutMS
	}
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout("+strconv.Itoa(busy)+")")
	params.Add("_pragma", "journal_mode("+journal+")")
	params.Add("_txlock", "immediate")
	return path + "?" + params.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection and releases the process lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("release store lock: %w", unlockErr)
		}
	}
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
