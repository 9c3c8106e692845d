package dues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/plugin"
	"github.com/xraph/dues/resident"
	"github.com/xraph/dues/types"
)

// CreateInvoiceInput bills one resident.
type CreateInvoiceInput struct {
	CustomerID    id.ResidentID      `json:"customer_id"`
	Items         []invoice.LineItem `json:"items"`
	BillingPeriod invoice.Period     `json:"billing_period"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// BulkInput bills every active resident with the same item template.
type BulkInput struct {
	Items         []invoice.LineItem `json:"items"`
	BillingPeriod invoice.Period     `json:"billing_period"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// BulkResult reports a bulk run. A run with failures is still a result, not
// an error: each resident is billed independently.
type BulkResult struct {
	CreatedCount       int              `json:"created_count"`
	Created            []id.InvoiceID   `json:"created"`
	FailedCustomerIDs  []id.ResidentID  `json:"failed_customer_ids"`
	SkippedCustomerIDs []id.ResidentID  `json:"skipped_customer_ids"`
	Failures           map[string]error `json:"-"`
	Period             invoice.Period   `json:"billing_period"`
}

// Partial reports whether at least one resident could not be billed.
func (r *BulkResult) Partial() bool {
	return len(r.FailedCustomerIDs) > 0
}

// CreateInvoice bills one resident. Their unpaid invoices are rolled into the
// new invoice as old arrears.
func (e *Engine) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*invoice.Invoice, error) {
	if in.CustomerID.IsNil() {
		return nil, NewValidationError("customer_id", "is required")
	}
	if err := validateItems(in.Items, e.currency); err != nil {
		return nil, err
	}
	if err := validatePeriod(in.BillingPeriod); err != nil {
		return nil, err
	}

	res, err := e.GetResident(ctx, in.CustomerID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ValidationError{Field: "customer_id", Message: "unknown customer " + in.CustomerID.String(), Err: ErrResidentNotFound}
		}
		return nil, err
	}
	if !res.IsActive() {
		return nil, ValidationError{Field: "customer_id", Message: "customer has moved out", Err: ErrResidentInactive}
	}

	inv, err := e.generate(ctx, res, in.Items, in.BillingPeriod, in.DueDate, in.Notes)
	if err != nil {
		return nil, err
	}

	e.logger.Info("invoice generated",
		"invoice_id", inv.ID.String(),
		"customer_id", res.ID.String(),
		"total", inv.TotalAmount.String(),
		"old_arrears", inv.OldArrears.String(),
	)
	return inv, nil
}

// CreateInvoicesBulk bills every active resident of the society. An invalid
// template fails the whole call before anything is written. Residents who
// already have an invoice for the period are skipped, so a partially failed
// run can be repeated safely.
func (e *Engine) CreateInvoicesBulk(ctx context.Context, in BulkInput) (*BulkResult, error) {
	if err := validateItems(in.Items, e.currency); err != nil {
		return nil, err
	}
	if err := validatePeriod(in.BillingPeriod); err != nil {
		return nil, err
	}

	residents, err := e.store.ListResidents(ctx, e.societyID, resident.ListOpts{Status: resident.StatusActive})
	if err != nil {
		return nil, fmt.Errorf("dues: list residents: %w", err)
	}

	result := &BulkResult{
		Created:            []id.InvoiceID{},
		FailedCustomerIDs:  []id.ResidentID{},
		SkippedCustomerIDs: []id.ResidentID{},
		Failures:           make(map[string]error),
		Period:             in.BillingPeriod.Normalize(),
	}
	start := time.Now()

	for _, res := range residents {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := validateResident(res); err != nil {
			result.fail(res.ID, err)
			continue
		}

		inv, err := e.generate(ctx, res, in.Items, in.BillingPeriod, in.DueDate, in.Notes)
		switch {
		case err == nil:
			result.CreatedCount++
			result.Created = append(result.Created, inv.ID)
		case errors.Is(err, ErrInvoiceExists):
			result.SkippedCustomerIDs = append(result.SkippedCustomerIDs, res.ID)
		default:
			result.fail(res.ID, err)
		}
	}

	e.plugins.EmitBulkGenerated(ctx, plugin.BulkReport{
		Period:  result.Period,
		Created: result.CreatedCount,
		Skipped: len(result.SkippedCustomerIDs),
		Failed:  len(result.FailedCustomerIDs),
	})

	e.logger.Info("bulk invoices generated",
		"period", result.Period.String(),
		"residents", len(residents),
		"created", result.CreatedCount,
		"skipped", len(result.SkippedCustomerIDs),
		"failed", len(result.FailedCustomerIDs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (r *BulkResult) fail(residentID id.ResidentID, err error) {
	r.FailedCustomerIDs = append(r.FailedCustomerIDs, residentID)
	r.Failures[residentID.String()] = err
}

// generate computes and writes one invoice from res's own ledger snapshot.
func (e *Engine) generate(ctx context.Context, res *resident.Resident, items []invoice.LineItem, period invoice.Period, due *time.Time, notes string) (*invoice.Invoice, error) {
	unpaid, err := e.store.ListInvoices(ctx, e.societyID, invoice.ListOpts{
		CustomerID: res.ID,
		Statuses:   []invoice.Status{invoice.StatusPending, invoice.StatusOverdue},
	})
	if err != nil {
		return nil, fmt.Errorf("dues: load arrears for %s: %w", res.ID, err)
	}

	lines := make([]invoice.LineItem, len(items))
	for i, li := range items {
		lines[i] = invoice.LineItem{
			ID:       id.NewLineItemID(),
			Name:     strings.TrimSpace(li.Name),
			Price:    types.Money{Amount: li.Price.Amount, Currency: e.currency},
			Quantity: li.Quantity,
		}
	}

	inv := &invoice.Invoice{
		Entity:        types.NewEntity(e.now()),
		ID:            id.NewInvoiceID(),
		SocietyID:     e.societyID,
		CustomerID:    res.ID,
		CustomerName:  res.Name,
		Flat:          res.Flat,
		Items:         lines,
		BillingPeriod: period.Normalize(),
		Notes:         strings.TrimSpace(notes),
		Currency:      e.currency,
		Status:        invoice.StatusPending,
	}
	if due != nil {
		d := due.UTC()
		inv.DueDate = &d
	}
	arrears, err := invoice.Arrears(e.currency, unpaid)
	if err != nil {
		return nil, ValidationError{Field: "old_arrears", Message: err.Error(), Err: err}
	}
	totals, err := invoice.Compute(e.currency, lines, arrears, invoice.DefaultTaxRate)
	if err != nil {
		return nil, ValidationError{Field: "items", Message: err.Error(), Err: err}
	}
	totals.Apply(inv)

	if err := e.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	e.plugins.EmitInvoiceGenerated(ctx, inv)
	return inv, nil
}

// MarkInvoicePaid records payment of a pending or overdue invoice.
func (e *Engine) MarkInvoicePaid(ctx context.Context, invID id.InvoiceID, paymentRef string) (*invoice.Invoice, error) {
	if _, err := e.GetInvoice(ctx, invID); err != nil {
		return nil, err
	}
	if err := e.store.MarkInvoicePaid(ctx, invID, e.now(), strings.TrimSpace(paymentRef)); err != nil {
		return nil, err
	}

	inv, err := e.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitInvoicePaid(ctx, inv)
	e.logger.Info("invoice paid",
		"invoice_id", inv.ID.String(),
		"customer_id", inv.CustomerID.String(),
		"amount", inv.TotalAmount.String(),
	)
	return inv, nil
}

// GetInvoice returns an invoice with its effective status.
func (e *Engine) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if inv.SocietyID != e.societyID {
		return nil, ErrInvoiceNotFound
	}
	inv.Status = inv.EffectiveStatus(e.now())
	return inv, nil
}

// ListInvoices lists the society's invoices, newest first. A Status filter
// matches the effective status, so "overdue" includes pending invoices whose
// due date has passed.
func (e *Engine) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	now := e.now()
	q := opts
	q.Statuses = nil

	derived := false
	switch opts.Status {
	case "":
	case invoice.StatusPaid:
		q.Statuses = []invoice.Status{invoice.StatusPaid}
	case invoice.StatusPending, invoice.StatusOverdue:
		q.Statuses = []invoice.Status{invoice.StatusPending, invoice.StatusOverdue}
		q.Limit, q.Offset = 0, 0
		derived = true
	default:
		return nil, NewValidationError("status", fmt.Sprintf("unknown invoice status %q", opts.Status))
	}

	list, err := e.store.ListInvoices(ctx, e.societyID, q)
	if err != nil {
		return nil, err
	}

	out := list[:0]
	for _, inv := range list {
		inv.Status = inv.EffectiveStatus(now)
		if derived && inv.Status != opts.Status {
			continue
		}
		out = append(out, inv)
	}
	if derived {
		out = page(out, opts.Limit, opts.Offset)
	}
	return out, nil
}

// ListInvoicesForCustomer lists one resident's invoices, newest first.
func (e *Engine) ListInvoicesForCustomer(ctx context.Context, customerID id.ResidentID) ([]*invoice.Invoice, error) {
	if _, err := e.GetResident(ctx, customerID); err != nil {
		return nil, err
	}
	return e.ListInvoices(ctx, invoice.ListOpts{CustomerID: customerID})
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
