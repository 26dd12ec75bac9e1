package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"toneexport/internal/assetcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the download cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

// openCache opens the configured cache directory even when caching is
// disabled, so leftovers from earlier runs can still be inspected.
func openCache(ctx *commandContext) (*assetcache.Manager, bool, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, false, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, false, err
	}
	manager := assetcache.Open(cfg.Cache.Dir, cfg.CacheMaxBytes(), logger)
	if manager == nil {
		return nil, cfg.Cache.Enabled, fmt.Errorf("cache directory or max_gib not configured")
	}
	return manager, cfg.Cache.Enabled, nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, enabled, err := openCache(ctx)
			if err != nil {
				return err
			}
			stats, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache directory: %s (enabled: %s)\n", manager.Root(), yesNo(enabled))
			fmt.Fprintf(out, "Entries: %d, using %s of %s\n", stats.Entries,
				humanize.IBytes(uint64(stats.TotalBytes)), humanize.IBytes(uint64(stats.MaxBytes)))
			if stats.TotalFSBytes > 0 {
				fmt.Fprintf(out, "Filesystem free: %s (%.0f%%)\n", humanize.IBytes(stats.FreeBytes), stats.FreeRatio*100)
			}
			if len(stats.EntrySummaries) == 0 {
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(stats.EntrySummaries))
			for _, entry := range stats.EntrySummaries {
				rows = append(rows, []string{
					entry.URL,
					humanize.IBytes(uint64(entry.SizeBytes)),
					humanize.RelTime(entry.LastUsedAt, now, "ago", "from now"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Size", "Last used"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Evict entries until the cache is within its limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := openCache(ctx)
			if err != nil {
				return err
			}
			before, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if err := manager.Prune(cmd.Context()); err != nil {
				return err
			}
			after, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entr(ies), freed %s\n",
				before.Entries-after.Entries,
				humanize.IBytes(uint64(before.TotalBytes-after.TotalBytes)))
			return nil
		},
	}
}
