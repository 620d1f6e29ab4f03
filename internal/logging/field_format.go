package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// subjectValue renders the job id and stage placed in the console header.
func subjectValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindString:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v.Any()))
	}
}

// fieldValue renders one indented console attribute. Output is always a
// single line so tailing keeps each record's attributes attached to it.
func fieldValue(key string, v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindInt64:
		s := strconv.FormatInt(v.Int64(), 10)
		if strings.HasSuffix(key, "_ms") {
			s += "ms"
		}
		return s
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindString:
		return singleLine(v.String())
	default:
		if err, ok := v.Any().(error); ok {
			return singleLine(err.Error())
		}
		return singleLine(fmt.Sprint(v.Any()))
	}
}

// singleLine quotes empty values and values that would break the line.
func singleLine(s string) string {
	if s == "" || strings.ContainsAny(s, "\n\r\t") {
		return strconv.Quote(s)
	}
	return s
}
