package export_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/xraph/dues/export"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/types"
)

func sampleInvoice() *invoice.Invoice {
	return &invoice.Invoice{
		ID:           id.NewInvoiceID(),
		CustomerID:   id.NewResidentID(),
		CustomerName: "Asha Rao",
		Flat:         "B-1204",
		Items:        []invoice.LineItem{{Name: "Maintenance", Price: types.INR(200000), Quantity: 1}},
		BillingPeriod: invoice.Period{
			From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Currency:    "inr",
		Subtotal:    types.INR(200000),
		Tax:         types.INR(36000),
		OldArrears:  types.INR(0),
		TotalAmount: types.INR(236000),
		Status:      invoice.StatusPending,
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	inv := sampleInvoice()
	if err := (export.JSON{}).Render(context.Background(), inv, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if out["id"] != inv.ID.String() {
		t.Errorf("id = %v, want %s", out["id"], inv.ID)
	}
	total, _ := out["total_amount"].(map[string]any)
	if total["display"] != "₹2360.00" {
		t.Errorf("total display = %v", total["display"])
	}
}

func TestTextInvoice(t *testing.T) {
	var buf bytes.Buffer
	due := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	inv := sampleInvoice()
	inv.DueDate = &due

	if err := (export.Text{}).Render(context.Background(), inv, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := buf.String()
	for _, want := range []string{"Asha Rao, Flat B-1204", "2024-03-01 to 2024-03-31", "2024-04-10", "Maintenance", "₹360.00", "₹2360.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestTextNotice(t *testing.T) {
	var buf bytes.Buffer
	n := &notice.Notice{NoticeNumber: "LN-2024-0007", Status: notice.StatusDraft, Content: "Dear Asha,\nPlease pay.\n\n"}
	if err := (export.Text{}).Render(context.Background(), n, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Notice No. LN-2024-0007\nStatus: draft\n\nDear Asha,\nPlease pay.\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTextUnsupported(t *testing.T) {
	err := (export.Text{}).Render(context.Background(), struct{}{}, &bytes.Buffer{})
	if !errors.Is(err, export.ErrUnsupportedDocument) {
		t.Errorf("got %v, want ErrUnsupportedDocument", err)
	}
}
