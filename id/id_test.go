package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/dues/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"ResidentID", id.NewResidentID, "res_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
		{"LineItemID", id.NewLineItemID, "li_"},
		{"NoticeID", id.NewNoticeID, "ntc_"},
		{"ReminderID", id.NewReminderID, "rmd_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"ResidentID", id.NewResidentID, id.ParseResidentID},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID},
		{"LineItemID", id.NewLineItemID, id.ParseLineItemID},
		{"NoticeID", id.NewNoticeID, id.ParseNoticeID},
		{"ReminderID", id.NewReminderID, id.ParseReminderID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseInvoiceID(id.NewNoticeID().String()); err == nil {
		t.Error("ParseInvoiceID accepted a notice id")
	}
	if _, err := id.ParseResidentID(id.NewInvoiceID().String()); err == nil {
		t.Error("ParseResidentID accepted an invoice id")
	}
}

func TestParseOptional(t *testing.T) {
	got, err := id.ParseOptional("", id.PrefixInvoice)
	if err != nil {
		t.Fatalf("ParseOptional(\"\") error: %v", err)
	}
	if !got.IsNil() {
		t.Error("expected Nil for empty input")
	}

	inv := id.NewInvoiceID()
	got, err = id.ParseOptional(inv.String(), id.PrefixInvoice)
	if err != nil || got.String() != inv.String() {
		t.Fatalf("ParseOptional(%q) = %q, %v", inv, got, err)
	}

	if _, err := id.ParseOptional("garbage", id.PrefixInvoice); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("expected empty rendering, got %q / %q", i.String(), i.Prefix())
	}
}

func TestValueScan(t *testing.T) {
	original := id.NewNoticeID()
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.ID
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("mismatch: %q != %q", scanned.String(), original.String())
	}

	var nilID id.ID
	if val, _ := nilID.Value(); val != nil {
		t.Errorf("expected NULL for nil ID, got %v", val)
	}
	if err := scanned.Scan(""); err != nil || !scanned.IsNil() {
		t.Errorf("Scan(\"\") = %v, nil=%v", err, scanned.IsNil())
	}
	if err := scanned.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
