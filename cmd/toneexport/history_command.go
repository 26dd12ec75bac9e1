package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"toneexport/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryStore(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No exports recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Status", "Error", "Clips", "Size", "Duration", "Elapsed", "Output"},
				historyRows(runs, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			store, err := openHistoryStore(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Age threshold in days")
	return cmd
}

// openHistoryStore returns a nil store, after telling the user, when history
// is disabled.
func openHistoryStore(cmd *cobra.Command, ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Export history is disabled (history.enabled = false)")
		return nil, nil
	}
	return history.Open(cmd.Context(), cfg.History.Path)
}

func historyRows(runs []history.Run, now time.Time) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		size, duration, elapsed := "-", "-", "-"
		if run.Status == history.StatusSucceeded {
			size = humanize.IBytes(uint64(run.SizeBytes))
			duration = strconv.FormatFloat(run.DurationSeconds, 'f', 2, 64) + " s"
		}
		if d := run.Elapsed(); d > 0 {
			elapsed = d.Round(time.Second).String()
		}
		errKind := run.ErrorKind
		if errKind == "" {
			errKind = "-"
		}
		rows = append(rows, []string{
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			string(run.Status),
			errKind,
			strconv.Itoa(run.ClipCount),
			size,
			duration,
			elapsed,
			strings.TrimSpace(run.OutputPath),
		})
	}
	return rows
}
