package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	readBufferSize   = 64 * 1024
	followPollPeriod = 250 * time.Millisecond
)

// TailOptions controls which records Tail returns.
type TailOptions struct {
	// Limit caps the number of records returned. Zero or less returns all.
	Limit int
	// JobID restricts output to records about one job when non-zero.
	JobID int64
}

// TailResult holds the selected lines and the file offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail returns the last records of the log at path. A missing file yields an
// empty result.
func Tail(path string, opts TailOptions) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}

	ring := newRecordRing(opts.Limit)
	offset, err := readRecords(file, opts.JobID, true, ring.push)
	if err != nil {
		return TailResult{}, err
	}
	result := TailResult{Offset: offset}
	for _, record := range ring.records() {
		result.Lines = append(result.Lines, record...)
	}
	return result, nil
}

// recordRing keeps the most recent records up to limit. A limit of zero or
// less keeps everything.
type recordRing struct {
	limit int
	items [][]string
	next  int
}

func newRecordRing(limit int) *recordRing {
	if limit < 0 {
		limit = 0
	}
	return &recordRing{limit: limit}
}

func (r *recordRing) push(record []string) {
	if r.limit == 0 || len(r.items) < r.limit {
		r.items = append(r.items, record)
		return
	}
	r.items[r.next] = record
	r.next = (r.next + 1) % r.limit
}

func (r *recordRing) records() [][]string {
	if r.next == 0 {
		return r.items
	}
	ordered := make([][]string, 0, len(r.items))
	ordered = append(ordered, r.items[r.next:]...)
	return append(ordered, r.items[:r.next]...)
}

// Follow calls emit for every line appended to path after offset, polling
// until ctx is done. It returns nil when ctx ends.
func Follow(ctx context.Context, path string, offset int64, jobID int64, emit func(string)) error {
	ticker := time.NewTicker(followPollPeriod)
	defer ticker.Stop()

	for {
		next, err := readAppended(path, offset, jobID, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readAppended(path string, offset int64, jobID int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		// Truncated or rotated; start over.
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	read, err := readRecords(file, jobID, false, func(record []string) {
		for _, line := range record {
			emit(line)
		}
	})
	if err != nil {
		return offset, err
	}
	return offset + read, nil
}

// readRecords groups lines into records and passes those matching jobID to
// keep, oldest first. The returned count is the number of bytes consumed from
// the reader's position.
// A trailing line without a newline is included only when keepPartial is set,
// otherwise it is left for the next read.
func readRecords(r io.Reader, jobID int64, keepPartial bool, keep func([]string)) (int64, error) {
	reader := bufio.NewReaderSize(r, readBufferSize)

	var (
		current []string
		read    int64
	)
	flush := func() {
		if len(current) > 0 && matchesJob(current[0], jobID) {
			keep(current)
		}
		current = nil
	}
	for {
		raw, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("read log file: %w", err)
		}
		complete := strings.HasSuffix(raw, "\n")
		if raw == "" || (!complete && !keepPartial) {
			break
		}
		read += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if isContinuation(line) && len(current) > 0 {
			current = append(current, line)
		} else {
			flush()
			current = []string{line}
		}
		if !complete {
			break
		}
	}
	flush()
	return read, nil
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func matchesJob(header string, jobID int64) bool {
	if jobID == 0 {
		return true
	}
	id := strconv.FormatInt(jobID, 10)
	if strings.Contains(header, `"job_id":`+id+`,`) || strings.Contains(header, `"job_id":`+id+`}`) {
		return true
	}
	subject := "Job #" + id
	idx := strings.Index(header, subject)
	if idx < 0 {
		return false
	}
	rest := header[idx+len(subject):]
	return rest == "" || rest[0] == ' '
}
