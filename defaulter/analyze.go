// Package defaulter derives the defaulter register from an invoice ledger.
//
// Analyze is pure: it reads a snapshot of invoices and a reference time and
// returns a fresh View. Nothing is cached or persisted, so the register always
// reflects the ledger it was computed from.
package defaulter

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/types"
)

// Severity buckets a defaulter by whole months outstanding.
type Severity string

const (
	SeverityMild     Severity = "mild"     // under 2 months
	SeverityModerate Severity = "moderate" // 2 to 5 months
	SeverityChronic  Severity = "chronic"  // 6 months or more
)

const (
	daysPerMonth   = 30
	moderateMonths = 2
	chronicMonths  = 6
	hoursPerDay    = 24
)

// SeverityFor maps whole months outstanding to a bucket.
func SeverityFor(months int) Severity {
	switch {
	case months >= chronicMonths:
		return SeverityChronic
	case months >= moderateMonths:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// Record is one customer's aggregated dues.
type Record struct {
	CustomerID    id.ResidentID      `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	Flat          string             `json:"flat,omitempty"`
	Invoices      []*invoice.Invoice `json:"invoices"`
	TotalDue      types.Money        `json:"total_due"`
	OldestDueDate time.Time          `json:"oldest_due_date"`
	DaysPending   int                `json:"days_pending"`
	MonthsPending int                `json:"months_pending"`
	Severity      Severity           `json:"severity"`
}

// Stats summarises a View.
type Stats struct {
	Total         int         `json:"total"`
	Mild          int         `json:"mild"`
	Moderate      int         `json:"moderate"`
	Chronic       int         `json:"chronic"`
	RevenueAtRisk types.Money `json:"revenue_at_risk"`
}

// View is the defaulter register as of AsOf.
type View struct {
	AsOf    time.Time `json:"as_of"`
	Records []*Record `json:"records"`
	Stats   Stats     `json:"stats"`
}

// Analyze groups the unpaid invoices in list by customer and classifies each
// customer. Records are ordered by months pending, then total due, both
// descending, with the customer id as the final tie-break.
//
// All unpaid invoices must share one currency; a mix is reported as
// types.ErrCurrencyMismatch.
func Analyze(list []*invoice.Invoice, now time.Time) (*View, error) {
	currency := types.DefaultCurrency
	byCustomer := make(map[string]*Record)
	var order []string

	for _, inv := range list {
		if !inv.Status.Unpaid() {
			continue
		}
		if len(order) == 0 {
			currency = inv.TotalAmount.Currency
		}
		if inv.TotalAmount.Currency != currency {
			return nil, fmt.Errorf("defaulter: invoice %s: %w: %s != %s",
				inv.ID, types.ErrCurrencyMismatch, inv.TotalAmount.Currency, currency)
		}
		key := inv.CustomerID.String()
		rec, ok := byCustomer[key]
		if !ok {
			rec = &Record{
				CustomerID:    inv.CustomerID,
				CustomerName:  inv.CustomerName,
				Flat:          inv.Flat,
				TotalDue:      types.Zero(inv.TotalAmount.Currency),
				OldestDueDate: inv.OutstandingSince(),
			}
			byCustomer[key] = rec
			order = append(order, key)
		}
		due, err := rec.TotalDue.CheckedAdd(inv.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("defaulter: invoice %s: %w", inv.ID, err)
		}
		rec.Invoices = append(rec.Invoices, inv)
		rec.TotalDue = due
		if since := inv.OutstandingSince(); since.Before(rec.OldestDueDate) {
			rec.OldestDueDate = since
		}
	}

	view := &View{
		AsOf:    now,
		Records: make([]*Record, 0, len(order)),
		Stats:   Stats{RevenueAtRisk: types.Zero(currency)},
	}
	for _, key := range order {
		rec := byCustomer[key]
		rec.DaysPending = daysBetween(rec.OldestDueDate, now)
		rec.MonthsPending = rec.DaysPending / daysPerMonth
		rec.Severity = SeverityFor(rec.MonthsPending)
		view.Records = append(view.Records, rec)

		view.Stats.Total++
		switch rec.Severity {
		case SeverityChronic:
			view.Stats.Chronic++
		case SeverityModerate:
			view.Stats.Moderate++
		default:
			view.Stats.Mild++
		}
		risk, err := view.Stats.RevenueAtRisk.CheckedAdd(rec.TotalDue)
		if err != nil {
			return nil, fmt.Errorf("defaulter: revenue at risk: %w", err)
		}
		view.Stats.RevenueAtRisk = risk
	}

	sort.SliceStable(view.Records, func(i, j int) bool {
		a, b := view.Records[i], view.Records[j]
		if a.MonthsPending != b.MonthsPending {
			return a.MonthsPending > b.MonthsPending
		}
		if a.TotalDue.Amount != b.TotalDue.Amount {
			return a.TotalDue.Amount > b.TotalDue.Amount
		}
		return a.CustomerID.String() < b.CustomerID.String()
	})

	return view, nil
}

// daysBetween is the whole number of days from since to now, never negative.
func daysBetween(since, now time.Time) int {
	if !since.Before(now) {
		return 0
	}
	return int(math.Floor(now.Sub(since).Hours() / hoursPerDay))
}

// BySeverity returns the records in sev, keeping the view's order.
func (v *View) BySeverity(sev Severity) []*Record {
	var out []*Record
	for _, rec := range v.Records {
		if rec.Severity == sev {
			out = append(out, rec)
		}
	}
	return out
}

// Find returns the record for customerID, or nil when the customer owes nothing.
func (v *View) Find(customerID id.ResidentID) *Record {
	for _, rec := range v.Records {
		if rec.CustomerID.String() == customerID.String() {
			return rec
		}
	}
	return nil
}
