package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/internal/config"
)

func newLetterCmd(cfg *config.Config) *cobra.Command {
	var (
		tenant    string
		invoiceID string
		draft     bool
	)
	cmd := &cobra.Command{
		Use:   "letter",
		Short: "Compose a demand letter for a resident",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := id.ParseResidentID(tenant)
			if err != nil {
				return fmt.Errorf("--tenant: %w", err)
			}
			invID, err := id.ParseOptional(invoiceID, id.PrefixInvoice)
			if err != nil {
				return fmt.Errorf("--invoice: %w", err)
			}

			engine, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer engine.Stop()

			letter, err := engine.SuggestNotice(cmd.Context(), tenantID, invID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !draft {
				fmt.Fprintln(out, letter.Content)
				return nil
			}

			n, err := engine.CreateLegalNotice(cmd.Context(), dues.CreateNoticeInput{
				TenantID:  tenantID,
				InvoiceID: invID,
				Subject:   letter.Subject,
				Content:   letter.Content,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "drafted %s (%s)\n", n.NoticeNumber, n.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "resident id")
	cmd.Flags().StringVar(&invoiceID, "invoice", "", "invoice id whose total is demanded")
	cmd.Flags().BoolVar(&draft, "draft", false, "save the letter as a draft legal notice")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
