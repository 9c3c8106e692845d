package dues

import (
	"context"
	"fmt"

	"github.com/xraph/dues/defaulter"
	"github.com/xraph/dues/invoice"
)

// Defaulters derives the defaulter register from the current ledger. Nothing
// is cached: every call reads a fresh snapshot of the society's unpaid
// invoices. Only invoices in the engine's currency are analysed.
func (e *Engine) Defaulters(ctx context.Context) (*defaulter.View, error) {
	unpaid, err := e.store.ListInvoices(ctx, e.societyID, invoice.ListOpts{
		Statuses: []invoice.Status{invoice.StatusPending, invoice.StatusOverdue},
	})
	if err != nil {
		return nil, fmt.Errorf("dues: load ledger: %w", err)
	}

	now := e.now()
	billed := unpaid[:0]
	foreign := 0
	for _, inv := range unpaid {
		if inv.TotalAmount.Currency != e.currency {
			foreign++
			continue
		}
		inv.Status = inv.EffectiveStatus(now)
		billed = append(billed, inv)
	}
	if foreign > 0 {
		e.logger.Warn("defaulters: skipping invoices billed in another currency",
			"currency", e.currency,
			"skipped", foreign,
		)
	}

	view, err := defaulter.Analyze(billed, now)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitDefaultersAnalyzed(ctx, view)
	e.logger.Debug("defaulters analyzed",
		"invoices", len(unpaid),
		"defaulters", view.Stats.Total,
		"chronic", view.Stats.Chronic,
		"revenue_at_risk", view.Stats.RevenueAtRisk.String(),
	)
	return view, nil
}
