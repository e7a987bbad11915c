package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the discover feed for new movies",
		Long: "Walks the discover feed from the last checkpoint and adds unseen movies " +
			"to the download listing. Safe to interrupt; the next scan resumes where " +
			"this one stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := ctx.newScanRuntime()
			if err != nil {
				return err
			}
			defer runtime.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := runtime.driver.Run(runCtx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d pages, added %d movies (listing total %d)\n",
				stats.PagesScanned, stats.Added, runtime.listing.Len())
			if err != nil {
				fmt.Fprintf(out, "Scan stopped early; resume from page %d with another scan\n",
					runtime.checkpoint.LastPage())
				return err
			}
			return nil
		},
	}
}
