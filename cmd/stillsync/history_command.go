package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"stillsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent download outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if _, err := os.Stat(cfg.HistoryDBPath()); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(out, "No history recorded yet")
				return nil
			}

			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Recorded %d downloads across %d sessions: %d ok, %d failed\n\n",
				summary.Total, summary.Sessions, summary.OK, summary.Failed)

			outcomes, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(outcomes) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(outcomes))
			for _, outcome := range outcomes {
				detail := outcome.SavePath
				if outcome.Status == history.StatusFailed {
					detail = outcome.Error
				}
				rows = append(rows, []string{
					outcome.CreatedAt.Local().Format(time.DateTime),
					strconv.FormatInt(outcome.EntityID, 10),
					outcome.RemoteKey,
					outcome.Status,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Movie", "Remote Key", "Status", "Detail"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent outcomes to show")
	return cmd
}
