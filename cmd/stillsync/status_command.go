package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stillsync/internal/ledger"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline state",
		Long:  "Reads the persisted state documents and reports listing, download, and retry progress.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Read-only: no gate, no logger noise.
			led := ledger.Load(cfg.LedgerPath(), nil)
			failures := ledger.LoadFailures(cfg.FailuresPath(), nil)
			listing := ledger.LoadListing(cfg.ListingPath(), nil)
			checkpoint := ledger.LoadCheckpoint(cfg.CheckpointPath(), nil)

			pendingCount := 0
			for _, entity := range listing.Items() {
				if !led.HasEntity(entity.ID) {
					pendingCount++
				}
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Listed movies", strconv.Itoa(listing.Len())},
				{"Pending movies", strconv.Itoa(pendingCount)},
				{"Archived movies", strconv.Itoa(led.EntityCount())},
				{"Downloaded images", strconv.Itoa(led.AssetCount())},
				{"Failed downloads", strconv.Itoa(failures.Len())},
				{"Next scan page", strconv.Itoa(checkpoint.LastPage())},
			}
			fmt.Fprintln(out, renderTable(
				[]string{"State", "Count"}, rows,
				[]columnAlignment{alignLeft, alignRight}))

			colorize := shouldColorize(out)
			if failures.Len() > 0 {
				fmt.Fprintln(out, statusLine(
					fmt.Sprintf("%d failed downloads waiting for `stillsync retry`", failures.Len()),
					ansiYellow, colorize))
			} else if pendingCount == 0 && listing.Len() > 0 {
				fmt.Fprintln(out, statusLine("listing fully processed", ansiGreen, colorize))
			}
			fmt.Fprintf(out, "State directory: %s\n", cfg.Paths.StateDir)
			return nil
		},
	}
}

func statusLine(message, color string, colorize bool) string {
	if colorize {
		return color + message + ansiReset
	}
	return message
}
