package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errUsage signals that usage text was already printed.
var errUsage = errors.New("usage")

func newRootCommand() *cobra.Command {
	var flags globalFlags
	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:   "toneexport <project-file> <output-file>",
		Short: "Export a Tone project to a video file",
		Long: "Fetches every clip referenced by the project, normalizes it to the project's\n" +
			"resolution and frame rate, joins the clips, mixes in the music track, burns in\n" +
			"text overlays, and writes the result to the output file.\n\n" +
			"A project file whose name matches a subcommand (check, config, history, cache,\n" +
			"scratch) must be given with a path, for example ./history.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx.stderr = cmd.ErrOrStderr()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return errUsage
			}
			return runExport(cmd, ctx, args[0], args[1])
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Override logging.format (console, json)")
	rootCmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable download progress bars")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newScratchCommand(ctx))

	return rootCmd
}
