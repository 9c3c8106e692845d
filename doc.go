// Package dues is the collections engine of a housing society: it bills
// residents for maintenance, works out who is behind on payment and drives
// legal escalation against the worst defaulters.
//
// Dues is a library. Import it into your application with the store of your
// choice:
//
//	import (
//	    "github.com/xraph/dues"
//	    "github.com/xraph/dues/store/postgres"
//	)
//
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := dues.New(store,
//	    dues.WithSociety("greenwood", notice.Society{Name: "Greenwood Heights CHS"}),
//	    dues.WithDispatcher(notify.NewWebhookDispatcher(gatewayURL)),
//	)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Invoices
//
// An invoice is the sum of its line items, 18% tax on that subtotal and the
// resident's unpaid balance carried forward as old arrears:
//
//	inv, err := engine.CreateInvoice(ctx, dues.CreateInvoiceInput{
//	    CustomerID:    residentID,
//	    Items:         []invoice.LineItem{{Name: "Maintenance", Price: dues.INR(200000), Quantity: 1}},
//	    BillingPeriod: invoice.Period{From: from, To: to},
//	})
//
// CreateInvoicesBulk bills every active resident with the same items. One
// resident failing never stops the others, and a resident already billed for
// the period is skipped, so a failed run can simply be repeated.
//
// Invoices are never deleted. They stay pending until MarkInvoicePaid; a
// pending invoice past its due date reads as overdue.
//
// # Defaulters
//
// Defaulters groups unpaid invoices by resident and classifies each by how
// long the oldest one has been outstanding: chronic from six months, moderate
// from two, mild below that.
//
// # Legal notices
//
// A notice starts as a draft, becomes sent once the dispatcher accepts the
// email and is finally resolved. SuggestNotice prefills a demand letter;
// operators may edit it before creating the notice.
//
// All amounts are integer minor units (paise for INR). Tax is the only
// fractional step and rounds half away from zero.
package dues
