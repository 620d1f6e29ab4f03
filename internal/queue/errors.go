package queue

import (
	"errors"
	"strings"
)

var (
	// ErrJobNotFound indicates the referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrShortNotFound indicates the referenced short does not exist.
	ErrShortNotFound = errors.New("short not found")
	// ErrUnknownTrend indicates a job referenced a trend id that does not exist.
	ErrUnknownTrend = errors.New("unknown trend")
	// ErrInvalidTrend indicates a trend is missing its video id or title.
	ErrInvalidTrend = errors.New("invalid trend")
	// ErrInvalidStatus indicates a status value outside the job lifecycle.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStoreLocked indicates another process holds the store's lock file.
	ErrStoreLocked = errors.New("queue store is locked by another process")
)

const sqliteConstraintForeignKey = 787

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteConstraintForeignKey {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
