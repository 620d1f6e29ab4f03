// Package queue persists trends and processing jobs in SQLite and exposes the
// single store handle that every collaborator goes through.
//
// The Store owns one database connection guarded by a mutex, holds a
// process-level lock file so only one process writes at a time, bootstraps the
// schema idempotently, and exposes the settings table, the trend registry, the
// job queue with its status state machine, the shorts/metrics output log, and
// the dashboard rollups.
//
// Trends are keyed by video id and the first write wins. InsertTrend trims the
// video id and title before storing them, so ids differing only in
// surrounding whitespace are the same trend, and it rejects a trend whose
// trimmed video id or title is empty.
//
// Stored text is decoded leniently: unknown status values fall back to pending
// and unparseable timestamps fall back to the current time. Both fallbacks are
// reported through DecodeStatus and DecodeTimestamp and surfaced on the decoded
// records so callers can tell a defaulted value from a genuine one.
//
// NextPending is a read: the returned job stays pending until the caller
// transitions it, so two callers can receive the same job. ClaimNext selects
// and transitions the job in a single statement and should be preferred by
// anything that actually processes work.
package queue
