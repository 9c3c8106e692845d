package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xraph/dues/types"
)

// DefaultTaxRate is the GST rate applied to maintenance charges.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Totals is the computed money side of an invoice.
type Totals struct {
	Subtotal    types.Money
	Tax         types.Money
	OldArrears  types.Money
	TotalAmount types.Money
}

// Compute sums the items, applies rate to the subtotal and rolls arrears in.
// Tax is rounded half away from zero to the minor unit, so
// TotalAmount == Subtotal + round(Subtotal*rate) + OldArrears always holds.
// Items or arrears in another currency, or totals past int64, are errors.
func Compute(currency string, items []LineItem, arrears types.Money, rate decimal.Decimal) (Totals, error) {
	subtotal := types.Zero(currency)
	for _, li := range items {
		amount, err := li.Price.CheckedMultiply(li.Quantity)
		if err != nil {
			return Totals{}, fmt.Errorf("item %q: %w", li.Name, err)
		}
		if subtotal, err = subtotal.CheckedAdd(amount); err != nil {
			return Totals{}, fmt.Errorf("item %q: %w", li.Name, err)
		}
	}
	tax, err := subtotal.CheckedApplyRate(rate)
	if err != nil {
		return Totals{}, fmt.Errorf("tax: %w", err)
	}
	total, err := subtotal.CheckedAdd(tax)
	if err == nil {
		total, err = total.CheckedAdd(arrears)
	}
	if err != nil {
		return Totals{}, fmt.Errorf("total: %w", err)
	}
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		OldArrears:  arrears,
		TotalAmount: total,
	}, nil
}

// Arrears sums TotalAmount over the unpaid invoices in list that are billed in
// currency. Invoices in any other currency stay open on their own and are not
// carried forward.
func Arrears(currency string, list []*Invoice) (types.Money, error) {
	total := types.Zero(currency)
	for _, inv := range list {
		if !inv.Status.Unpaid() || inv.TotalAmount.Currency != total.Currency {
			continue
		}
		var err error
		if total, err = total.CheckedAdd(inv.TotalAmount); err != nil {
			return types.Money{}, fmt.Errorf("arrears: %w", err)
		}
	}
	return total, nil
}

// Apply copies t onto inv.
func (t Totals) Apply(inv *Invoice) {
	inv.Subtotal = t.Subtotal
	inv.Tax = t.Tax
	inv.OldArrears = t.OldArrears
	inv.TotalAmount = t.TotalAmount
}
