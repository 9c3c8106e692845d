package notice_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to notice.Status
		want     bool
	}{
		{notice.StatusDraft, notice.StatusSent, true},
		{notice.StatusDraft, notice.StatusResolved, true},
		{notice.StatusSent, notice.StatusResolved, true},
		{notice.StatusSent, notice.StatusSent, false},
		{notice.StatusSent, notice.StatusDraft, false},
		{notice.StatusResolved, notice.StatusSent, false},
		{notice.StatusResolved, notice.StatusResolved, false},
		{notice.StatusDraft, notice.StatusDraft, false},
	}
	for _, tt := range tests {
		if got := notice.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s): got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := notice.FormatNumber(2024, 7); got != "LN-2024-0007" {
		t.Errorf("FormatNumber: got %s", got)
	}
	if got := notice.FormatNumber(2025, 12345); got != "LN-2025-12345" {
		t.Errorf("FormatNumber overflow: got %s", got)
	}
}

func TestComposeDemandLetter(t *testing.T) {
	amount := types.INR(336000)
	in := notice.DemandLetterInput{
		Society:      notice.Society{Name: "Green Meadows CHS", Address: "Baner Road, Pune"},
		ResidentName: "Asha Rao",
		Flat:         "B-1204",
		Amount:       &amount,
		Date:         time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	letter := notice.ComposeDemandLetter(in)

	if !strings.Contains(letter.Subject, "B-1204") {
		t.Errorf("subject should name the flat: %q", letter.Subject)
	}
	for _, want := range []string{
		"Green Meadows CHS\nBaner Road, Pune",
		"To,\nAsha Rao\nFlat B-1204",
		"Subject: " + letter.Subject,
		"₹3360.00",
		"within 7 days",
		"Management Committee",
		"01 September 2024",
	} {
		if !strings.Contains(letter.Content, want) {
			t.Errorf("letter missing %q:\n%s", want, letter.Content)
		}
	}
	if strings.Contains(letter.Content, notice.AmountPlaceholder) {
		t.Error("placeholder should be replaced when an amount is given")
	}
	if strings.Contains(letter.Content, "Registration No.") {
		t.Error("empty registration should be omitted")
	}
}

func TestComposeDemandLetterPlaceholder(t *testing.T) {
	letter := notice.ComposeDemandLetter(notice.DemandLetterInput{
		Society:      notice.Society{Name: "Green Meadows CHS"},
		ResidentName: "Bala",
		Flat:         "A-101",
		Date:         time.Now(),
	})
	if !strings.Contains(letter.Content, "dues of [Amount]") {
		t.Errorf("expected amount placeholder:\n%s", letter.Content)
	}
	if !strings.HasPrefix(letter.Content, "Green Meadows CHS\n\nDate:") {
		t.Errorf("unexpected header:\n%s", letter.Content)
	}
}

func TestNoticeJSONInvoiceID(t *testing.T) {
	linked := id.NewInvoiceID()
	tests := []struct {
		name    string
		invoice id.InvoiceID
		want    string
	}{
		{"without invoice", id.Nil, ""},
		{"with invoice", linked, `"invoice_id":"` + linked.String() + `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := notice.Notice{ID: id.NewNoticeID(), TenantID: id.NewResidentID(), InvoiceID: tt.invoice, Status: notice.StatusDraft}
			data, err := json.Marshal(n)
			if err != nil {
				t.Fatal(err)
			}
			if tt.want == "" && strings.Contains(string(data), "invoice_id") {
				t.Errorf("marshal = %s, want no invoice_id", data)
			}
			if tt.want != "" && !strings.Contains(string(data), tt.want) {
				t.Errorf("marshal = %s, want %s", data, tt.want)
			}

			var back notice.Notice
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if back.InvoiceID != tt.invoice || back.ID != n.ID || back.Status != n.Status {
				t.Errorf("round trip = %+v, want %+v", back, n)
			}
		})
	}
}
