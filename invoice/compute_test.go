package invoice_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		items   []invoice.LineItem
		arrears int64
		want    invoice.Totals
	}{
		{
			name:  "single maintenance item",
			items: []invoice.LineItem{{Name: "Maintenance", Price: types.INR(200000), Quantity: 1}},
			want: invoice.Totals{
				Subtotal: types.INR(200000), Tax: types.INR(36000),
				OldArrears: types.INR(0), TotalAmount: types.INR(236000),
			},
		},
		{
			name: "arrears rolled in",
			items: []invoice.LineItem{
				{Name: "Maintenance", Price: types.INR(150000), Quantity: 1},
				{Name: "Parking", Price: types.INR(25000), Quantity: 2},
			},
			arrears: 236000,
			want: invoice.Totals{
				Subtotal: types.INR(200000), Tax: types.INR(36000),
				OldArrears: types.INR(236000), TotalAmount: types.INR(472000),
			},
		},
		{
			name:  "tax rounds half away from zero",
			items: []invoice.LineItem{{Name: "Water", Price: types.INR(25), Quantity: 1}},
			want: invoice.Totals{
				Subtotal: types.INR(25), Tax: types.INR(5),
				OldArrears: types.INR(0), TotalAmount: types.INR(30),
			},
		},
		{
			name:  "free item",
			items: []invoice.LineItem{{Name: "Waiver", Price: types.INR(0), Quantity: 3}},
			want: invoice.Totals{
				Subtotal: types.INR(0), Tax: types.INR(0),
				OldArrears: types.INR(0), TotalAmount: types.INR(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := invoice.Compute("inr", tt.items, types.INR(tt.arrears), invoice.DefaultTaxRate)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compute: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Property: totalAmount == round(subtotal*1.18) + oldArrears for any item mix.
func TestComputeTotalInvariant(t *testing.T) {
	rate := invoice.DefaultTaxRate
	for price := int64(0); price < 2000; price += 37 {
		for qty := int64(1); qty <= 4; qty++ {
			items := []invoice.LineItem{{Name: "x", Price: types.INR(price), Quantity: qty}}
			got, err := invoice.Compute("inr", items, types.INR(price), rate)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}

			want := decimal.NewFromInt(price * qty).
				Mul(decimal.NewFromInt(1).Add(rate)).
				Round(0).IntPart() + price
			if got.TotalAmount.Amount != want {
				t.Fatalf("price=%d qty=%d: total %d, want %d", price, qty, got.TotalAmount.Amount, want)
			}
		}
	}
}

func TestArrears(t *testing.T) {
	list := []*invoice.Invoice{
		{Status: invoice.StatusPending, TotalAmount: types.INR(1000)},
		{Status: invoice.StatusOverdue, TotalAmount: types.INR(500)},
		{Status: invoice.StatusPaid, TotalAmount: types.INR(9999)},
	}
	if got, err := invoice.Arrears("inr", list); err != nil || !got.Equal(types.INR(1500)) {
		t.Errorf("Arrears: got %v, %v, want %v", got, err, types.INR(1500))
	}
	if got, err := invoice.Arrears("inr", nil); err != nil || !got.IsZero() {
		t.Errorf("Arrears(nil): got %v, %v", got, err)
	}

	// Open invoices in another currency are not carried forward.
	list = append(list, &invoice.Invoice{Status: invoice.StatusPending, TotalAmount: types.USD(700)})
	if got, err := invoice.Arrears("inr", list); err != nil || !got.Equal(types.INR(1500)) {
		t.Errorf("Arrears with usd invoice: got %v, %v", got, err)
	}
}

func TestComputeOverflow(t *testing.T) {
	tests := []struct {
		name    string
		items   []invoice.LineItem
		arrears int64
	}{
		{"price times quantity", []invoice.LineItem{{Name: "x", Price: types.INR(1 << 40), Quantity: 1 << 30}}, 0},
		{"subtotal", []invoice.LineItem{
			{Name: "x", Price: types.INR(math.MaxInt64 - 10), Quantity: 1},
			{Name: "y", Price: types.INR(20), Quantity: 1},
		}, 0},
		{"tax on top of subtotal", []invoice.LineItem{{Name: "x", Price: types.INR(math.MaxInt64 - 100), Quantity: 1}}, 0},
		{"arrears", []invoice.LineItem{{Name: "x", Price: types.INR(100), Quantity: 1}}, math.MaxInt64 - 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoice.Compute("inr", tt.items, types.INR(tt.arrears), invoice.DefaultTaxRate)
			if !errors.Is(err, types.ErrOverflow) {
				t.Errorf("Compute: got %v, want ErrOverflow", err)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		status invoice.Status
		due    *time.Time
		want   invoice.Status
	}{
		{"pending without due date", invoice.StatusPending, nil, invoice.StatusPending},
		{"pending not yet due", invoice.StatusPending, &future, invoice.StatusPending},
		{"pending past due", invoice.StatusPending, &past, invoice.StatusOverdue},
		{"stored overdue", invoice.StatusOverdue, &future, invoice.StatusOverdue},
		{"paid past due", invoice.StatusPaid, &past, invoice.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &invoice.Invoice{Status: tt.status, DueDate: tt.due}
			if got := inv.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPeriodNormalize(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	p := invoice.Period{
		From: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC),
	}.Normalize()

	if !p.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("From: got %v", p.From)
	}
	if p.String() != "2024-03-01..2024-03-31" {
		t.Errorf("String: got %s", p.String())
	}

	// 01:00 IST on Apr 1 is still Mar 31 in UTC.
	q := invoice.Period{From: time.Date(2024, 4, 1, 1, 0, 0, 0, ist)}.Normalize()
	if q.From.Day() != 31 {
		t.Errorf("expected UTC day 31, got %d", q.From.Day())
	}
}
