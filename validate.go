package dues

import (
	"fmt"
	"strings"

	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/resident"
	"github.com/xraph/dues/types"
)

func validateItems(items []invoice.LineItem, currency string) error {
	if len(items) == 0 {
		return NewValidationError("items", "at least one line item is required")
	}
	for i, li := range items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(li.Name) == "" {
			return NewValidationError(field+".name", "is required")
		}
		if li.Price.IsNegative() {
			return NewValidationError(field+".price", "must not be negative")
		}
		if li.Price.Currency != "" && li.Price.Currency != currency {
			return NewValidationError(field+".price", fmt.Sprintf("currency %q does not match %q", li.Price.Currency, currency))
		}
		if li.Quantity < 1 {
			return NewValidationError(field+".quantity", "must be at least 1")
		}
	}
	subtotal := types.Zero(currency)
	for i, li := range items {
		amount, err := types.Money{Amount: li.Price.Amount, Currency: subtotal.Currency}.CheckedMultiply(li.Quantity)
		if err == nil {
			subtotal, err = subtotal.CheckedAdd(amount)
		}
		if err != nil {
			return ValidationError{Field: fmt.Sprintf("items[%d]", i), Message: "amount is too large", Err: err}
		}
	}
	return nil
}

func validatePeriod(p invoice.Period) error {
	if p.From.IsZero() || p.To.IsZero() {
		return NewValidationError("billing_period", "from and to are required")
	}
	if p.To.Before(p.From) {
		return NewValidationError("billing_period", "to is before from")
	}
	return nil
}

func validateResident(r *resident.Resident) error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if strings.TrimSpace(r.Flat) == "" {
		return NewValidationError("flat", "is required")
	}
	return nil
}
