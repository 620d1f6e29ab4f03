package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shotqueue/internal/logs"
	"shotqueue/internal/services"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var jobID int64

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the shotqueue log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if jobID < 0 {
				return services.Wrap(services.ErrValidation, "cli", "logs", "job id must be positive", nil)
			}

			path := cfg.LogPath()
			result, err := logs.Tail(path, logs.TailOptions{Limit: lines, JobID: jobID})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(result.Lines) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			followCtx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, result.Offset, jobID, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show (0 for all)")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Only show records for this job")
	return cmd
}
