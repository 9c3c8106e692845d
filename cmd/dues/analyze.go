package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/xraph/dues/internal/config"
)

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the defaulter register",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer engine.Stop()

			view, err := engine.Defaulters(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FLAT\tRESIDENT\tINVOICES\tDUE\tSINCE\tMONTHS\tSEVERITY")
			for _, r := range view.Records {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\t%s\n",
					r.Flat, r.CustomerName, len(r.Invoices), r.TotalDue,
					r.OldestDueDate.Format(time.DateOnly), r.MonthsPending, r.Severity)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			s := view.Stats
			fmt.Fprintf(out, "\n%d defaulters (%d mild, %d moderate, %d chronic), %s at risk\n",
				s.Total, s.Mild, s.Moderate, s.Chronic, s.RevenueAtRisk)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
