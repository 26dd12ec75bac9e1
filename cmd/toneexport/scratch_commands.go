package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"toneexport/internal/staging"
)

func newScratchCommand(ctx *commandContext) *cobra.Command {
	scratchCmd := &cobra.Command{
		Use:   "scratch",
		Short: "Manage leftover export scratch directories",
	}
	scratchCmd.AddCommand(newScratchListCommand(ctx))
	scratchCmd.AddCommand(newScratchCleanCommand(ctx))
	return scratchCmd
}

func newScratchListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scratch directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.ListDirectories(cfg.Paths.ScratchRoot)
			if err != nil {
				return fmt.Errorf("list scratch directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No scratch directories found")
				return nil
			}
			fmt.Fprintf(out, "Scratch root: %s\n\n", cfg.Paths.ScratchRoot)
			now := time.Now()
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					dir.Name,
					humanize.IBytes(uint64(dir.Size)),
					humanize.RelTime(dir.ModTime, now, "ago", "from now"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Directory", "Size", "Modified"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func newScratchCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch directories left behind by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			age := maxAge
			if age <= 0 {
				age = cfg.ScratchMaxAge()
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.ScratchRoot, age, logger)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d scratch director(ies) older than %s\n", len(result.Removed), age)
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", failure.Path, failure.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d scratch director(ies) could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "older-than", 0, "Age threshold (default scratch.stale_hours)")
	return cmd
}
