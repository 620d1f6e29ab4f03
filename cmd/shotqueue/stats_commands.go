package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shotqueue/internal/queue"
)

type statsReport struct {
	queue.DashboardStats
	ByStatus map[queue.Status]int `json:"by_status"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counts and jobs per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				stats, err := store.Stats(c)
				if err != nil {
					return err
				}
				counts, err := store.StatusCounts(c)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, statsReport{DashboardStats: stats, ByStatus: counts})
				}

				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderFields([][2]string{
					{"Trends", strconv.FormatInt(stats.TotalTrends, 10)},
					{"Pending jobs", strconv.FormatInt(stats.PendingJobs, 10)},
					{"Completed jobs", strconv.FormatInt(stats.CompletedJobs, 10)},
					{"Failed jobs", strconv.FormatInt(stats.FailedJobs, 10)},
				}))

				rows := buildStatusRows(counts, shouldColorize(out))
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

// buildStatusRows lists statuses in lifecycle order and skips empty ones.
func buildStatusRows(counts map[queue.Status]int, colorize bool) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, status := range queue.AllStatuses() {
		count := counts[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{statusLabel(status, colorize), strconv.Itoa(count)})
	}
	return rows
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check queue database health (schema, tables, integrity)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				health, err := store.CheckHealth(c)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				lines := []string{
					renderStatusLine("Database exists", boolKind(health.DatabaseExists), "", colorize),
					renderStatusLine("Readable", boolKind(health.DatabaseReadable), "", colorize),
					renderStatusLine("Schema version", statusInfo, strconv.Itoa(health.SchemaVersion), colorize),
				}
				if len(health.MissingTables) > 0 {
					lines = append(lines, renderStatusLine("Tables", statusError, "missing "+strings.Join(health.MissingTables, ", "), colorize))
				} else {
					lines = append(lines, renderStatusLine("Tables", statusOK, "", colorize))
				}
				lines = append(lines,
					renderStatusLine("Integrity check", boolKind(health.IntegrityCheck), "", colorize),
					renderStatusLine("Total jobs", statusInfo, strconv.FormatInt(health.TotalJobs, 10), colorize),
				)
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
