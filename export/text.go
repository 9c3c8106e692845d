package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/plugin"
)

var _ plugin.DocumentFormatter = Text{}

// ErrUnsupportedDocument is returned for documents Text cannot lay out.
var ErrUnsupportedDocument = errors.New("export: unsupported document type")

// Text renders invoices as a plain statement and notices as the letter body.
type Text struct{}

func (Text) Name() string   { return "export-text" }
func (Text) Format() string { return "text" }

func (Text) Render(_ context.Context, doc any, w io.Writer) error {
	switch d := doc.(type) {
	case *invoice.Invoice:
		return renderInvoice(d, w)
	case *notice.Notice:
		return renderNotice(d, w)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedDocument, doc)
	}
}

func renderInvoice(inv *invoice.Invoice, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Invoice %s\t\n", inv.ID)
	fmt.Fprintf(tw, "Customer\t%s\n", customerLine(inv))
	fmt.Fprintf(tw, "Period\t%s to %s\n", inv.BillingPeriod.From.Format(time.DateOnly), inv.BillingPeriod.To.Format(time.DateOnly))
	if inv.DueDate != nil {
		fmt.Fprintf(tw, "Due\t%s\n", inv.DueDate.Format(time.DateOnly))
	}
	fmt.Fprintf(tw, "Status\t%s\n", inv.Status)
	fmt.Fprintln(tw, "\t")

	fmt.Fprintln(tw, "Item\tQty\tPrice\tAmount\t")
	for _, li := range inv.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", li.Name, li.Quantity, li.Price, li.Amount())
	}
	fmt.Fprintln(tw, "\t")

	fmt.Fprintf(tw, "Subtotal\t\t\t%s\t\n", inv.Subtotal)
	fmt.Fprintf(tw, "Tax\t\t\t%s\t\n", inv.Tax)
	fmt.Fprintf(tw, "Old arrears\t\t\t%s\t\n", inv.OldArrears)
	fmt.Fprintf(tw, "Total\t\t\t%s\t\n", inv.TotalAmount)

	if inv.PaidAt != nil {
		fmt.Fprintf(tw, "Paid\t%s %s\n", inv.PaidAt.Format(time.DateOnly), inv.PaymentRef)
	}
	if inv.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", inv.Notes)
	}
	return tw.Flush()
}

func customerLine(inv *invoice.Invoice) string {
	if inv.Flat == "" {
		return inv.CustomerName
	}
	return inv.CustomerName + ", Flat " + inv.Flat
}

func renderNotice(n *notice.Notice, w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Notice No. %s\n", n.NoticeNumber)
	fmt.Fprintf(&b, "Status: %s\n\n", n.Status)
	b.WriteString(strings.TrimRight(n.Content, "\n"))
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
