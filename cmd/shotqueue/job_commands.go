package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shotqueue/internal/queue"
	"shotqueue/internal/services"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Enqueue, dispatch, and transition jobs",
	}

	jobCmd.AddCommand(newJobCreateCommand(ctx))
	jobCmd.AddCommand(newJobNextCommand(ctx))
	jobCmd.AddCommand(newJobClaimCommand(ctx))
	jobCmd.AddCommand(newJobStatusCommand(ctx))
	jobCmd.AddCommand(newJobRetryCommand(ctx))
	jobCmd.AddCommand(newJobResetCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobMetricCommand(ctx))
	jobCmd.AddCommand(newJobShortCommand(ctx))
	jobCmd.AddCommand(newJobShortSentCommand(ctx))

	return jobCmd
}

func newJobCreateCommand(ctx *commandContext) *cobra.Command {
	var trendID int64
	var videoID string
	var priority int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Enqueue a pending job for a trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID = strings.TrimSpace(videoID)
			if (trendID == 0) == (videoID == "") {
				return services.Wrap(services.ErrValidation, "job", "create", "exactly one of --trend-id or --video-id is required", nil)
			}
			if !cmd.Flags().Changed("priority") {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				priority = cfg.Queue.DefaultPriority
			}

			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				if videoID != "" {
					trend, err := store.TrendByVideoID(c, videoID)
					if err != nil {
						return err
					}
					if trend == nil {
						return services.Wrap(services.ErrNotFound, "job", "create", fmt.Sprintf("no trend recorded for %q", videoID), nil)
					}
					trendID = trend.ID
				}
				id, err := store.CreateJob(c, trendID, priority)
				if err != nil {
					return classifyStoreError("job", "create", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]int64{"id": id, "trend_id": trendID, "priority": int64(priority)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created job #%d for trend #%d (priority %d)\n", id, trendID, priority)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&trendID, "trend-id", 0, "Trend row id")
	cmd.Flags().StringVar(&videoID, "video-id", "", "Trend video id")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Dispatch priority (higher runs first)")
	return cmd
}

func newJobNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Peek at the next pending job without claiming it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				dispatch, err := store.NextPending(c)
				if err != nil {
					return err
				}
				return printDispatch(cmd, ctx, dispatch)
			})
		},
	}
}

func newJobClaimCommand(ctx *commandContext) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Atomically claim the next pending job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("stage") {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				stage = cfg.Queue.ClaimStage
			}
			status, ok := queue.ParseStatus(stage)
			if !ok || !status.IsInProgress() {
				return services.Wrap(services.ErrValidation, "job", "claim",
					fmt.Sprintf("--stage must be %s or %s, got %q", queue.StatusGenerating, queue.StatusRendering, stage), nil)
			}

			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				dispatch, err := store.ClaimNext(c, status)
				if err != nil {
					return classifyStoreError("job", "claim", err)
				}
				return printDispatch(cmd, ctx, dispatch)
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Status the claimed job enters (generating or rendering)")
	return cmd
}

func newJobStatusCommand(ctx *commandContext) *cobra.Command {
	var errorMessage string

	cmd := &cobra.Command{
		Use:   "status JOB_ID STATUS",
		Short: "Move a job to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}
			status, ok := queue.ParseStatus(args[1])
			if !ok {
				return services.Wrap(services.ErrValidation, "job", "status", fmt.Sprintf("unknown status %q", args[1]), nil)
			}

			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				if err := store.UpdateStatus(c, id, status, errorMessage); err != nil {
					return classifyStoreError("job", "status", err)
				}
				return printJobAfterChange(c, cmd, ctx, store, id, fmt.Sprintf("Job #%d is now %s", id, status))
			})
		},
	}

	cmd.Flags().StringVarP(&errorMessage, "error", "e", "", "Error message recorded with a terminal status")
	return cmd
}

func newJobRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry JOB_ID",
		Short: "Return a failed job to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				if err := store.RetryJob(c, id); err != nil {
					return classifyStoreError("job", "retry", err)
				}
				return printJobAfterChange(c, cmd, ctx, store, id, fmt.Sprintf("Job #%d queued for retry", id))
			})
		},
	}
}

func newJobResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return jobs stuck in generating or rendering to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				count, err := store.ResetInProgress(c)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]int64{"reset": count})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d in-progress job(s)\n", count)
				return nil
			})
		},
	}
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in dispatch order",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return services.Wrap(services.ErrValidation, "job", "list", fmt.Sprintf("unknown status %q", raw), nil)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				jobs, err := store.ListJobs(c, statuses...)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if jobs == nil {
						jobs = []*queue.Job{}
					}
					return writeJSON(cmd, jobs)
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						strconv.FormatInt(job.TrendID, 10),
						statusLabel(job.Status, colorize),
						strconv.Itoa(job.Priority),
						strconv.Itoa(job.RetryCount),
						formatAge(job.CreatedAt),
						dashIfEmpty(job.ErrorMessage),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Trend", "Status", "Priority", "Retries", "Created", "Error"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

type jobDetail struct {
	Job     *queue.Job      `json:"job"`
	Trend   *queue.Trend    `json:"trend,omitempty"`
	Shorts  []*queue.Short  `json:"shorts"`
	Metrics []*queue.Metric `json:"metrics"`
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB_ID",
		Short: "Show a job with its trend, shorts, and stage timings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				detail, err := loadJobDetail(c, store, id)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, detail)
				}
				printJobDetail(cmd.OutOrStdout(), detail)
				return nil
			})
		},
	}
}

func newJobMetricCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "metric JOB_ID STAGE DURATION",
		Short: "Record a stage timing sample (DURATION like 1m30s)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}
			duration, err := time.ParseDuration(strings.TrimSpace(args[2]))
			if err != nil {
				return services.Wrap(services.ErrValidation, "job", "metric", fmt.Sprintf("invalid duration %q", args[2]), err)
			}
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				metricID, err := store.RecordMetric(c, id, args[1], duration)
				if err != nil {
					return classifyStoreError("job", "metric", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]int64{"id": metricID, "job_id": id, "duration_ms": duration.Milliseconds()})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for job #%d (%s)\n", strings.TrimSpace(args[1]), id, duration)
				return nil
			})
		},
	}
}

func newJobShortCommand(ctx *commandContext) *cobra.Command {
	var short queue.Short
	var duration float64

	cmd := &cobra.Command{
		Use:   "short JOB_ID",
		Short: "Record a generated short for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("job", args[0])
			if err != nil {
				return err
			}
			short.JobID = id
			if cmd.Flags().Changed("duration") {
				if duration < 0 {
					return services.Wrap(services.ErrValidation, "job", "short", "--duration must not be negative", nil)
				}
				short.DurationSec = &duration
			}
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				shortID, err := store.RecordShort(c, short)
				if err != nil {
					return classifyStoreError("job", "short", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]int64{"id": shortID, "job_id": id})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded short #%d for job #%d\n", shortID, id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&short.Script, "script", "", "Narration script")
	cmd.Flags().StringVar(&short.AudioPath, "audio", "", "Rendered audio path")
	cmd.Flags().StringVar(&short.VideoPath, "video", "", "Rendered video path")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Video duration in seconds")
	cmd.Flags().BoolVar(&short.TelegramSent, "sent", false, "Mark the short as already delivered")
	return cmd
}

func newJobShortSentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "short-sent SHORT_ID",
		Short: "Mark a recorded short as delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("short", args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				if err := store.MarkShortSent(c, id); err != nil {
					return classifyStoreError("short", "mark sent", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"id": id, "telegram_sent": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Short #%d marked as sent\n", id)
				return nil
			})
		},
	}
}

func printDispatch(cmd *cobra.Command, ctx *commandContext, dispatch *queue.Dispatch) error {
	if ctx.JSONMode() {
		return writeJSON(cmd, dispatch)
	}
	out := cmd.OutOrStdout()
	if dispatch == nil {
		fmt.Fprintln(out, "Queue is empty")
		return nil
	}
	job := dispatch.Job
	fmt.Fprint(out, renderFields([][2]string{
		{"Job", fmt.Sprintf("#%d", job.ID)},
		{"Status", statusLabel(job.Status, shouldColorize(out))},
		{"Priority", strconv.Itoa(job.Priority)},
		{"Created", formatWhen(job.CreatedAt)},
		{"Trend", fmt.Sprintf("#%d %s", dispatch.Trend.ID, dispatch.Trend.VideoID)},
		{"Title", dispatch.Trend.Title},
	}))
	return nil
}

func printJobAfterChange(c context.Context, cmd *cobra.Command, ctx *commandContext, store *queue.Store, id int64, message string) error {
	if !ctx.JSONMode() {
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	}
	job, err := store.JobByID(c, id)
	if err != nil {
		return err
	}
	return writeJSON(cmd, job)
}

func loadJobDetail(ctx context.Context, store *queue.Store, id int64) (*jobDetail, error) {
	job, err := store.JobByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "job", "show", fmt.Sprintf("job #%d does not exist", id), nil)
	}
	trend, err := store.TrendByID(ctx, job.TrendID)
	if err != nil {
		return nil, err
	}
	shorts, err := store.ShortsForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics, err := store.MetricsForJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if shorts == nil {
		shorts = []*queue.Short{}
	}
	if metrics == nil {
		metrics = []*queue.Metric{}
	}
	return &jobDetail{Job: job, Trend: trend, Shorts: shorts, Metrics: metrics}, nil
}

func printJobDetail(out io.Writer, detail *jobDetail) {
	colorize := shouldColorize(out)
	job := detail.Job

	fields := [][2]string{
		{"Job", fmt.Sprintf("#%d", job.ID)},
		{"Status", statusLabel(job.Status, colorize)},
		{"Priority", strconv.Itoa(job.Priority)},
		{"Retries", strconv.Itoa(job.RetryCount)},
		{"Created", formatWhen(job.CreatedAt)},
		{"Started", formatOptionalWhen(job.StartedAt)},
		{"Finished", formatOptionalWhen(job.FinishedAt)},
	}
	if job.ErrorMessage != "" {
		fields = append(fields, [2]string{"Error", job.ErrorMessage})
	}
	fmt.Fprint(out, renderFields(fields))

	if detail.Trend != nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Trend", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprint(out, renderFields(trendFields(detail.Trend)))
	}

	if len(detail.Shorts) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Shorts", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(detail.Shorts))
		for _, short := range detail.Shorts {
			durationText := "-"
			if short.DurationSec != nil {
				durationText = strconv.FormatFloat(*short.DurationSec, 'f', 1, 64) + "s"
			}
			rows = append(rows, []string{
				strconv.FormatInt(short.ID, 10),
				dashIfEmpty(short.VideoPath),
				durationText,
				yesNo(short.TelegramSent),
			})
		}
		fmt.Fprint(out, renderTable([]string{"ID", "Video", "Duration", "Sent"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
	}

	if len(detail.Metrics) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Stage timings", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(detail.Metrics))
		for _, metric := range detail.Metrics {
			rows = append(rows, []string{metric.Stage, metric.Duration.String(), formatAge(metric.RecordedAt)})
		}
		fmt.Fprint(out, renderTable([]string{"Stage", "Duration", "Recorded"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft}))
	}
}
