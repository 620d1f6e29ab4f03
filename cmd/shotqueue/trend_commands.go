package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shotqueue/internal/queue"
	"shotqueue/internal/services"
)

func newTrendCommand(ctx *commandContext) *cobra.Command {
	trendCmd := &cobra.Command{
		Use:   "trend",
		Short: "Record and inspect discovered trends",
	}

	trendCmd.AddCommand(newTrendAddCommand(ctx))
	trendCmd.AddCommand(newTrendShowCommand(ctx))
	trendCmd.AddCommand(newTrendListCommand(ctx))

	return trendCmd
}

type trendAddResult struct {
	ID        int64  `json:"id"`
	VideoID   string `json:"video_id"`
	Duplicate bool   `json:"duplicate"`
}

func newTrendAddCommand(ctx *commandContext) *cobra.Command {
	var trend queue.Trend
	var views int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a trend unless its video id is already known",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("views") {
				if views < 0 {
					return services.Wrap(services.ErrValidation, "trend", "add", "--views must not be negative", nil)
				}
				trend.Views = &views
			}
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				id, err := store.InsertTrend(c, trend)
				if err != nil {
					return classifyStoreError("trend", "add", err)
				}
				result := trendAddResult{ID: id, VideoID: strings.TrimSpace(trend.VideoID), Duplicate: id == 0}
				if ctx.JSONMode() {
					return writeJSON(cmd, result)
				}
				out := cmd.OutOrStdout()
				if result.Duplicate {
					fmt.Fprintf(out, "Trend %s already recorded; existing entry kept\n", result.VideoID)
					return nil
				}
				fmt.Fprintf(out, "Recorded trend #%d (%s)\n", id, result.VideoID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&trend.VideoID, "video-id", "", "External video identifier (required)")
	cmd.Flags().StringVar(&trend.Title, "title", "", "Video title (required)")
	cmd.Flags().StringVar(&trend.Channel, "channel", "", "Channel name")
	cmd.Flags().Int64Var(&views, "views", 0, "View count at discovery")
	cmd.Flags().StringVar(&trend.Category, "category", "", "Category label")
	_ = cmd.MarkFlagRequired("video-id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTrendShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show VIDEO_ID",
		Short: "Show a recorded trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				trend, err := store.TrendByVideoID(c, args[0])
				if err != nil {
					return err
				}
				if trend == nil {
					return services.Wrap(services.ErrNotFound, "trend", "show", fmt.Sprintf("no trend recorded for %q", args[0]), nil)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, trend)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderFields(trendFields(trend)))
				return nil
			})
		},
	}
}

func newTrendListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trends, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *queue.Store) error {
				trends, err := store.ListTrends(c, limit)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if trends == nil {
						trends = []*queue.Trend{}
					}
					return writeJSON(cmd, trends)
				}
				if len(trends) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No trends recorded")
					return nil
				}
				rows := make([][]string, 0, len(trends))
				for _, trend := range trends {
					rows = append(rows, []string{
						strconv.FormatInt(trend.ID, 10),
						trend.VideoID,
						trend.Title,
						dashIfEmpty(trend.Channel),
						formatViews(trend.Views),
						formatAge(trend.FetchedAt),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Video", "Title", "Channel", "Views", "Fetched"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum trends to show (0 for all)")
	return cmd
}

func trendFields(trend *queue.Trend) [][2]string {
	return [][2]string{
		{"ID", strconv.FormatInt(trend.ID, 10)},
		{"Video", trend.VideoID},
		{"Title", trend.Title},
		{"Channel", dashIfEmpty(trend.Channel)},
		{"Views", formatViews(trend.Views)},
		{"Category", dashIfEmpty(trend.Category)},
		{"Fetched", formatWhen(trend.FetchedAt)},
	}
}
