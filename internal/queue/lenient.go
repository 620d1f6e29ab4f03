package queue

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteTimestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(sqliteTimestampLayout, value)
}

// DecodeStatus applies the lenient status policy to a stored value. Unknown
// values decode to StatusPending with defaulted set to true.
func DecodeStatus(raw string) (status Status, defaulted bool) {
	if parsed, ok := ParseStatus(raw); ok {
		return parsed, false
	}
	return StatusPending, true
}

// DecodeTimestamp applies the lenient timestamp policy to a stored value.
// Values that do not parse decode to now with defaulted set to true.
func DecodeTimestamp(raw string, now time.Time) (ts time.Time, defaulted bool) {
	if parsed, err := parseTimeString(raw); err == nil {
		return parsed, false
	}
	return now.UTC(), true
}

// decodeOptionalTimestamp drops values that do not parse; optional timestamps
// never fall back to now.
func decodeOptionalTimestamp(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

// DecodePollInterval applies the lenient numeric policy to the stored poll
// interval. Missing, malformed, or zero values decode to the default.
func DecodePollInterval(raw string) (secs uint64, defaulted bool) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return DefaultPollIntervalSecs, true
	}
	return parsed, false
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTimestamp(*value)
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat64(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
