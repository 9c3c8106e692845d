package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/internal/config"
	"github.com/xraph/dues/invoice"
)

func newBillCmd(cfg *config.Config) *cobra.Command {
	var (
		month string
		items []string
		due   string
		notes string
	)
	cmd := &cobra.Command{
		Use:     "bill",
		Short:   "Generate invoices for every active resident",
		Example: `  dues bill --month 2024-03 --item "Maintenance=2000" --item "Sinking fund=250.50"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := monthPeriod(month)
			if err != nil {
				return err
			}
			lines, err := parseItems(items, cfg.Currency)
			if err != nil {
				return err
			}
			in := dues.BulkInput{Items: lines, BillingPeriod: period, Notes: notes}
			if due != "" {
				d, err := time.Parse(time.DateOnly, due)
				if err != nil {
					return fmt.Errorf("--due: %w", err)
				}
				in.DueDate = &d
			}

			engine, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer engine.Stop()

			res, err := engine.CreateInvoicesBulk(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "period %s: %d created, %d skipped, %d failed\n",
				period, res.CreatedCount, len(res.SkippedCustomerIDs), len(res.FailedCustomerIDs))
			for _, customerID := range res.FailedCustomerIDs {
				fmt.Fprintf(out, "  failed %s: %v\n", customerID, res.Failures[customerID.String()])
			}
			if res.Partial() {
				return fmt.Errorf("%d residents were not billed", len(res.FailedCustomerIDs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", time.Now().UTC().Format("2006-01"), "billing month (YYYY-MM)")
	cmd.Flags().StringArrayVar(&items, "item", nil, `line item as "name=amount" or "name=amount*qty"`)
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD); without one invoices never turn overdue")
	cmd.Flags().StringVar(&notes, "notes", "", "note printed on every invoice")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

// monthPeriod turns YYYY-MM into the inclusive period covering that month.
func monthPeriod(month string) (invoice.Period, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return invoice.Period{}, fmt.Errorf("--month: %w", err)
	}
	return invoice.Period{From: start, To: start.AddDate(0, 1, -1)}, nil
}

// parseItems reads "name=amount[*qty]" flags. Amounts are in major units.
func parseItems(raw []string, currency string) ([]invoice.LineItem, error) {
	items := make([]invoice.LineItem, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--item %q: want name=amount", r)
		}
		amount, qty := value, "1"
		if a, q, ok := strings.Cut(value, "*"); ok {
			amount, qty = a, q
		}
		price, err := dues.ParseMajor(strings.TrimSpace(amount), currency)
		if err != nil {
			return nil, fmt.Errorf("--item %q: %w", r, err)
		}
		var n int64
		if _, err := fmt.Sscan(qty, &n); err != nil {
			return nil, fmt.Errorf("--item %q: quantity: %w", r, err)
		}
		items = append(items, invoice.LineItem{Name: strings.TrimSpace(name), Price: price, Quantity: n})
	}
	return items, nil
}
