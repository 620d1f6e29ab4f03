package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusRendering  Status = "rendering"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusGenerating,
	StatusRendering,
	StatusDone,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var inProgressStatuses = map[Status]struct{}{
	StatusGenerating: {},
	StatusRendering:  {},
}

var terminalStatuses = map[Status]struct{}{
	StatusDone:   {},
	StatusFailed: {},
}

// allowedTransitions lists every status change the store accepts. Returning
// a failed job to pending is the in-place retry.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusGenerating, StatusRendering, StatusFailed},
	StatusGenerating: {StatusRendering, StatusDone, StatusFailed},
	StatusRendering:  {StatusDone, StatusFailed},
	StatusFailed:     {StatusPending},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

func (s Status) String() string { return string(s) }

// IsInProgress reports whether the status is a transient processing state.
func (s Status) IsInProgress() bool {
	_, ok := inProgressStatuses[s]
	return ok
}

// IsTerminal reports whether no further transition is expected from the status.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// CanTransition reports whether the lifecycle permits moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Trend is a discovered content item keyed by its external video id.
type Trend struct {
	ID                 int64     `json:"id"`
	VideoID            string    `json:"video_id"`
	Title              string    `json:"title"`
	Channel            string    `json:"channel,omitempty"`
	Views              *int64    `json:"views,omitempty"`
	Category           string    `json:"category,omitempty"`
	FetchedAt          time.Time `json:"fetched_at"`
	FetchedAtDefaulted bool      `json:"-"`
}

// Job is a unit of work referencing one trend.
type Job struct {
	ID              int64      `json:"id"`
	TrendID         int64      `json:"trend_id"`
	Status          Status     `json:"status"`
	Priority        int        `json:"priority"`
	RetryCount      int        `json:"retry_count"`
	ErrorMessage    string     `json:"error_msg,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	StatusDefaulted bool       `json:"-"`
}

// Dispatch pairs a job with the trend it references.
type Dispatch struct {
	Job   Job   `json:"job"`
	Trend Trend `json:"trend"`
}

// Short records an artifact produced for a job.
type Short struct {
	ID           int64    `json:"id"`
	JobID        int64    `json:"job_id"`
	Script       string   `json:"script,omitempty"`
	AudioPath    string   `json:"audio_path,omitempty"`
	VideoPath    string   `json:"video_path,omitempty"`
	DurationSec  *float64 `json:"duration_sec,omitempty"`
	TelegramSent bool     `json:"telegram_sent"`
}

// Metric is an append-only timing sample for one processing stage of a job.
type Metric struct {
	ID         int64         `json:"id"`
	JobID      int64         `json:"job_id"`
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// DashboardStats holds point-in-time counts for monitoring.
type DashboardStats struct {
	TotalTrends   int64 `json:"total_trends"`
	PendingJobs   int64 `json:"pending_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	MissingTables    []string `json:"missing_tables,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalJobs        int64    `json:"total_jobs"`
	Error            string   `json:"error,omitempty"`
}
