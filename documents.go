package dues

import (
	"context"
	"fmt"
	"io"

	"github.com/xraph/dues/id"
)

// Export renders doc with the formatter registered for format.
func (e *Engine) Export(ctx context.Context, format string, doc any, w io.Writer) error {
	f := e.plugins.Formatter(format)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := f.Render(ctx, doc, w); err != nil {
		return fmt.Errorf("dues: render %s: %w", format, err)
	}
	return nil
}

// ExportInvoice renders one invoice.
func (e *Engine) ExportInvoice(ctx context.Context, invID id.InvoiceID, format string, w io.Writer) error {
	inv, err := e.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	return e.Export(ctx, format, inv, w)
}

// ExportNotice renders one legal notice.
func (e *Engine) ExportNotice(ctx context.Context, noticeID id.NoticeID, format string, w io.Writer) error {
	n, err := e.GetLegalNotice(ctx, noticeID)
	if err != nil {
		return err
	}
	return e.Export(ctx, format, n, w)
}
