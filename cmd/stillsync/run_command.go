package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Download images for every pending movie",
		Long: "Resolves each movie on the listing against the image catalog and " +
			"downloads its posters and stills. Completed movies are archived; " +
			"interrupting is safe and a later run picks up the remainder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := ctx.newDownloadRuntime()
			if err != nil {
				return err
			}
			defer runtime.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			summary, err := runtime.manager.RunDownloads(runCtx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d/%d pending movies (%d matched, %d unmatched)\n",
				summary.Processed, summary.Pending, summary.Matched, summary.Unmatched)
			fmt.Fprintf(out, "Downloads: %d new, %d skipped, %d failed\n",
				summary.Stats.New, summary.Stats.Skipped, summary.Stats.Failed)
			if failed := runtime.failures.Len(); failed > 0 {
				fmt.Fprintf(out, "%d downloads remain on the retry list (stillsync retry)\n", failed)
			}
			return err
		},
	}
}
