package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/chatpulse/pkg/chatpulse/report"
)

func (a *app) reportCommand() *cobra.Command {
	var (
		server string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and store weekly reports",
		Long: `Report builds the weekly report (top topics, members, daily volume)
for a server, stores it and prints it. Without --server a report is made
for every known server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, _, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			servers := []string{server}
			if server == "" {
				servers, err = engine.Servers(ctx)
				if err != nil {
					return err
				}
			}

			for _, srv := range servers {
				r, err := engine.WeeklyReport(ctx, srv)
				if err != nil {
					return err
				}
				if err := printReport(cmd, r, asJSON); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server id (default: all servers)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	cmd.AddCommand(a.reportShowCommand(), a.reportListCommand())
	return cmd
}

func (a *app) reportShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, _, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			r, err := engine.Report(ctx, args[0])
			if err != nil {
				return err
			}
			return printReport(cmd, r, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func (a *app) reportListCommand() *cobra.Command {
	var (
		server string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			engine, _, err := a.openEngine(ctx)
			if err != nil {
				return err
			}
			defer engine.Close()

			reports, err := engine.Reports(ctx, server, limit)
			if err != nil {
				return err
			}
			w := out(cmd)
			if len(reports) == 0 {
				fmt.Fprintln(w, "No reports stored.")
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(w, "%s  %-20s week of %s  generated %s  %s, %d bytes\n",
					r.ID, r.ServerID,
					r.WeekStart.Format(time.DateOnly),
					r.GeneratedAt.Format(time.RFC3339),
					r.Format, len(r.Payload))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server id (default: all servers)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum reports to list")
	return cmd
}

func printReport(cmd *cobra.Command, r report.WeeklyReport, asJSON bool) error {
	w := out(cmd)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(w, "%s\nReport id: %s\n\n", report.Render(r), r.ID)
	return nil
}
