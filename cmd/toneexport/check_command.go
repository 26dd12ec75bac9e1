package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"toneexport/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg and ffprobe are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			deps.ProbeVersions(cmd.Context(), statuses)

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
				}
				detail := status.Version
				if detail == "" {
					detail = status.Detail
				}
				path := status.Path
				if path == "" {
					path = status.Command
				}
				rows = append(rows, []string{status.Name, path, state, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Path", "Status", "Version"}, rows, nil))
			return deps.Verify(statuses)
		},
	}
}
