package queue_test

import (
	"sync"
	"time"

	"shotqueue/internal/queue"
)

var baseTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// steppingClock returns a clock that advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func useSteppingClock(store *queue.Store) {
	queue.SetClock(store, steppingClock(baseTime, time.Second))
}
