package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"shotqueue/internal/queue"
	"shotqueue/internal/services"
)

// classifyStoreError tags queue sentinels with the marker that decides the
// CLI exit status. Other errors pass through unchanged.
func classifyStoreError(kind, operation string, err error) error {
	var marker error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrInvalidTrend), errors.Is(err, queue.ErrInvalidStatus):
		marker = services.ErrValidation
	case errors.Is(err, queue.ErrInvalidTransition), errors.Is(err, queue.ErrStoreLocked):
		marker = services.ErrConflict
	case errors.Is(err, queue.ErrJobNotFound), errors.Is(err, queue.ErrUnknownTrend), errors.Is(err, queue.ErrShortNotFound):
		marker = services.ErrNotFound
	default:
		return err
	}
	return services.Wrap(marker, kind, operation, "", err)
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, kind, "parse id", fmt.Sprintf("invalid %s id %q", kind, arg), nil)
	}
	return id, nil
}

// formatWhen renders a timestamp with its relative age, e.g.
// "2025-03-14 09:26:53 UTC (3 minutes ago)".
func formatWhen(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", ts.UTC().Format("2006-01-02 15:04:05 MST"), humanize.Time(ts))
}

func formatOptionalWhen(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return formatWhen(*ts)
}

func formatViews(views *int64) string {
	if views == nil {
		return "-"
	}
	return humanize.Comma(*views)
}

func formatAge(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.Time(ts)
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// maskSecret keeps the last four characters of a credential.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "(not set)"
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	default:
		return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
