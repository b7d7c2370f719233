package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) pruneCommand() *cobra.Command {
	var (
		days   int
		rollUp bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete messages older than the retention period",
		Long: `Prune deletes stored messages older than the retention period
(retention.days in the config, or --days). With roll-up enabled the
daily stats of each pruned day are stored first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			retention := a.cfg.RetentionPeriod()
			if cmd.Flags().Changed("days") {
				retention = time.Duration(days) * 24 * time.Hour
			}
			if !cmd.Flags().Changed("roll-up") {
				rollUp = a.cfg.Retention.RollUp
			}

			engine, _, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := engine.Prune(ctx, retention, rollUp)
			if err != nil {
				return err
			}
			a.logger.Info("pruned messages", "cutoff", res.Cutoff.Format(time.DateOnly), "deleted", res.Deleted)

			w := out(cmd)
			fmt.Fprintf(w, "Prune complete:\n")
			fmt.Fprintf(w, "  Cutoff:        %s\n", res.Cutoff.Format(time.DateOnly))
			fmt.Fprintf(w, "  Deleted:       %d\n", res.Deleted)
			fmt.Fprintf(w, "  Stats written: %d\n", res.StatsWritten)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "keep this many days (overrides retention.days)")
	cmd.Flags().BoolVar(&rollUp, "roll-up", true, "store daily stats for pruned days first")
	return cmd
}
