// Package invoice models maintenance invoices and the arithmetic behind them.
package invoice

import (
	"time"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/types"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
	StatusPaid    Status = "paid"
)

// Unpaid reports whether the status still counts towards a resident's dues.
func (s Status) Unpaid() bool {
	return s == StatusPending || s == StatusOverdue
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOverdue, StatusPaid:
		return true
	default:
		return false
	}
}

type Invoice struct {
	types.Entity
	ID            id.InvoiceID      `json:"id"`
	SocietyID     string            `json:"society_id"`
	CustomerID    id.ResidentID     `json:"customer_id"`
	CustomerName  string            `json:"customer_name"`
	Flat          string            `json:"flat,omitempty"`
	Items         []LineItem        `json:"items"`
	BillingPeriod Period            `json:"billing_period"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Currency      string            `json:"currency"`
	Subtotal      types.Money       `json:"subtotal"`
	Tax           types.Money       `json:"tax"`
	OldArrears    types.Money       `json:"old_arrears"`
	TotalAmount   types.Money       `json:"total_amount"`
	Status        Status            `json:"status"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	PaymentRef    string            `json:"payment_ref,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type LineItem struct {
	ID       id.LineItemID `json:"id"`
	Name     string        `json:"name"`
	Price    types.Money   `json:"price"`
	Quantity int64         `json:"quantity"`
}

// Amount is price times quantity.
func (li LineItem) Amount() types.Money {
	return li.Price.Multiply(li.Quantity)
}

// Period is an inclusive billing window.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Normalize truncates both ends to UTC calendar days so that the same month
// always yields the same uniqueness key.
func (p Period) Normalize() Period {
	return Period{From: day(p.From), To: day(p.To)}
}

func (p Period) String() string {
	return p.From.Format(time.DateOnly) + ".." + p.To.Format(time.DateOnly)
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EffectiveStatus is the status as of now. A pending invoice whose due date
// has passed reads as overdue; nothing is written back.
func (inv *Invoice) EffectiveStatus(now time.Time) Status {
	if inv.Status == StatusPending && inv.DueDate != nil && inv.DueDate.Before(now) {
		return StatusOverdue
	}
	return inv.Status
}

// OutstandingSince is the date dues are counted from: the due date, or the
// creation time when the invoice has none.
func (inv *Invoice) OutstandingSince() time.Time {
	if inv.DueDate != nil {
		return *inv.DueDate
	}
	return inv.CreatedAt
}
