package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/pkg/chatpulse/analytics"
)

func (a *app) membersCommand() *cobra.Command {
	var (
		server string
		days   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "members",
		Short: "Show the most active and most influential members",
		Long: `Members ranks authors by message count and by influence. Influence adds
one point per message and three per reaction received.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, _, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			stats, err := engine.Activity(ctx, server, time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}

			w := out(cmd)
			fmt.Fprintf(w, "Messages: %d\n\nMost active:\n", stats.TotalMessages)
			for i, m := range stats.ActiveMembers(limit) {
				fmt.Fprintf(w, "%2d. %-24s %d\n", i+1, m.AuthorID, m.Messages)
			}
			fmt.Fprintf(w, "\nMost influential:\n")
			for i, m := range stats.InfluentialMembers(limit) {
				fmt.Fprintf(w, "%2d. %-24s %d\n", i+1, m.AuthorID, m.Score)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server id (required)")
	cmd.Flags().IntVar(&days, "days", 7, "look back this many days")
	cmd.Flags().IntVar(&limit, "limit", analytics.DefaultActiveMembers, "members per ranking")
	_ = cmd.MarkFlagRequired("server")
	return cmd
}
