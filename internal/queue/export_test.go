package queue

import (
	"context"
	"time"
)

// SetClock replaces the store's time source.
func SetClock(s *Store, now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ExecRaw runs a statement directly against the store's connection.
func ExecRaw(s *Store, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(context.Background(), query, args...)
	return err
}
