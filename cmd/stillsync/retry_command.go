package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Re-run the failed downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := ctx.newDownloadRuntime()
			if err != nil {
				return err
			}
			defer runtime.Close()

			pending := runtime.failures.Len()
			out := cmd.OutOrStdout()
			if pending == 0 {
				fmt.Fprintln(out, "No failed downloads to retry")
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := runtime.manager.RetryFailed(runCtx)
			fmt.Fprintf(out, "Retried %d downloads: %d recovered, %d still failing\n",
				pending, stats.New, stats.Failed)
			return err
		},
	}
}
