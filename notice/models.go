// Package notice models legal demand notices and their lifecycle.
package notice

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/types"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusResolved Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusResolved:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is an edge of
// draft -> sent -> resolved. Resolving is also allowed straight from draft.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent || to == StatusResolved
	case StatusSent:
		return to == StatusResolved
	default:
		return false
	}
}

type Notice struct {
	types.Entity
	ID           id.NoticeID       `json:"id"`
	NoticeNumber string            `json:"notice_number"`
	SocietyID    string            `json:"society_id"`
	TenantID     id.ResidentID     `json:"tenant_id"`
	InvoiceID    id.InvoiceID      `json:"-"`
	Subject      string            `json:"subject"`
	Content      string            `json:"content"`
	Status       Status            `json:"status"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	ResolvedAt   *time.Time        `json:"resolved_at,omitempty"`
	DispatchRef  string            `json:"dispatch_ref,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// HasInvoice reports whether the notice is linked to a specific invoice.
func (n *Notice) HasInvoice() bool { return !n.InvoiceID.IsNil() }

// wireNotice is Notice without its methods, so the codec methods below can
// reuse the struct tags.
type wireNotice Notice

// MarshalJSON writes invoice_id only for notices tied to an invoice.
func (n Notice) MarshalJSON() ([]byte, error) {
	out := struct {
		wireNotice
		InvoiceID *id.InvoiceID `json:"invoice_id,omitempty"`
	}{wireNotice: wireNotice(n)}
	if n.HasInvoice() {
		out.InvoiceID = &n.InvoiceID
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a missing or empty invoice_id as no invoice.
func (n *Notice) UnmarshalJSON(data []byte) error {
	var in struct {
		wireNotice
		InvoiceID id.InvoiceID `json:"invoice_id"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = Notice(in.wireNotice)
	n.InvoiceID = in.InvoiceID
	return nil
}
