package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/pkg/chatpulse/analytics"
)

func (a *app) statsCommand() *cobra.Command {
	var (
		server string
		date   string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Recompute and store daily server stats",
		Long: `Stats counts messages and distinct authors per day in the configured
report timezone and stores the result. Without --server every known server is updated.

Examples:
  chatpulse stats                             # today, all servers
  chatpulse stats --server guild-1 --days 7   # the last week
  chatpulse stats --date 2024-03-04`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if days < 1 {
				days = 1
			}

			engine, comp, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			end := time.Now().In(comp.Location)
			if date != "" {
				end, err = time.ParseInLocation(time.DateOnly, date, comp.Location)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			servers := []string{server}
			if server == "" {
				servers, err = engine.Servers(ctx)
				if err != nil {
					return err
				}
			}

			w := out(cmd)
			for _, srv := range servers {
				for d := days - 1; d >= 0; d-- {
					st, err := engine.UpdateDailyStats(ctx, srv, analytics.StartOfDay(end, comp.Location).AddDate(0, 0, -d))
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%-20s %s  messages=%d  active_users=%d\n",
						st.ServerID, st.Date.Format(time.DateOnly), st.TotalMessages, st.ActiveUsers)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server id (default: all servers)")
	cmd.Flags().StringVar(&date, "date", "", "last day to compute, YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&days, "days", 1, "number of days ending at --date")
	return cmd
}
