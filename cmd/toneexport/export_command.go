package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"toneexport/internal/assetcache"
	"toneexport/internal/config"
	"toneexport/internal/deps"
	"toneexport/internal/export"
	"toneexport/internal/fetch"
	"toneexport/internal/history"
	"toneexport/internal/logging"
	"toneexport/internal/media/ffmpeg"
	"toneexport/internal/media/ffprobe"
)

func runExport(cmd *cobra.Command, ctx *commandContext, projectPath, outputPath string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	if err := deps.Verify(deps.CheckBinaries(deps.Requirements(cfg))); err != nil {
		return err
	}

	store := openHistory(cmd.Context(), cfg, logger)
	if store != nil {
		defer store.Close()
	}

	opts := []fetch.Option{}
	if !ctx.flags.noProgress && isTerminalWriter(cmd.ErrOrStderr()) {
		opts = append(opts, fetch.WithProgress(newProgressFunc(cmd.ErrOrStderr())))
	}
	fetcher := fetch.NewFromConfig(cfg, assetcache.NewManager(cfg, logger), logger, opts...)

	depsBundle := export.Dependencies{
		Fetcher: fetcher,
		Runner:  ffmpeg.NewExecRunner(cfg.Tools.FFmpeg, cfg.EncodeTimeout(), logger),
		Prober:  ffprobe.NewExecProber(cfg.Tools.FFprobe),
		Logger:  logger,
	}
	if store != nil {
		depsBundle.History = store
	}
	exporter, err := export.New(cfg, depsBundle)
	if err != nil {
		return err
	}

	result, err := exporter.Run(cmd.Context(), projectPath, outputPath)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), result)
	return nil
}

// openHistory returns nil when history is disabled or unavailable; exports
// proceed without it.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(logger, "history database unavailable", "history_open_failed",
			logging.String("path", cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
		)
		return nil
	}
	return store
}

func isTerminalWriter(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
