package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/resident"
	"github.com/xraph/dues/types"
)

// SQLite has no JSON column type; items and metadata are stored as TEXT.

type residentModel struct {
	grove.BaseModel `grove:"table:dues_residents"`

	ID        string    `grove:"id,pk"`
	SocietyID string    `grove:"society_id"`
	Name      string    `grove:"name"`
	Flat      string    `grove:"flat"`
	Email     string    `grove:"email"`
	Phone     string    `grove:"phone"`
	Status    string    `grove:"status"`
	Metadata  string    `grove:"metadata"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toResidentModel(r *resident.Resident) *residentModel {
	return &residentModel{
		ID:        r.ID.String(),
		SocietyID: r.SocietyID,
		Name:      r.Name,
		Flat:      r.Flat,
		Email:     r.Email,
		Phone:     r.Phone,
		Status:    string(r.Status),
		Metadata:  encodeMetadata(r.Metadata),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromResidentModel(m *residentModel) (*resident.Resident, error) {
	resID, err := id.ParseResidentID(m.ID)
	if err != nil {
		return nil, err
	}
	return &resident.Resident{
		Entity:    types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        resID,
		SocietyID: m.SocietyID,
		Name:      m.Name,
		Flat:      m.Flat,
		Email:     m.Email,
		Phone:     m.Phone,
		Status:    resident.Status(m.Status),
		Metadata:  decodeMetadata(m.Metadata),
	}, nil
}

type invoiceModel struct {
	grove.BaseModel `grove:"table:dues_invoices"`

	ID           string     `grove:"id,pk"`
	SocietyID    string     `grove:"society_id"`
	CustomerID   string     `grove:"customer_id"`
	CustomerName string     `grove:"customer_name"`
	Flat         string     `grove:"flat"`
	Items        string     `grove:"items"`
	PeriodFrom   time.Time  `grove:"period_from"`
	PeriodTo     time.Time  `grove:"period_to"`
	DueDate      *time.Time `grove:"due_date"`
	Notes        string     `grove:"notes"`
	Currency     string     `grove:"currency"`
	Subtotal     int64      `grove:"subtotal"`
	Tax          int64      `grove:"tax"`
	OldArrears   int64      `grove:"old_arrears"`
	TotalAmount  int64      `grove:"total_amount"`
	Status       string     `grove:"status"`
	PaidAt       *time.Time `grove:"paid_at"`
	PaymentRef   string     `grove:"payment_ref"`
	Metadata     string     `grove:"metadata"`
	CreatedAt    time.Time  `grove:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	items, _ := json.Marshal(inv.Items) //nolint:errcheck // plain structs always marshal
	period := inv.BillingPeriod.Normalize()

	return &invoiceModel{
		ID:           inv.ID.String(),
		SocietyID:    inv.SocietyID,
		CustomerID:   inv.CustomerID.String(),
		CustomerName: inv.CustomerName,
		Flat:         inv.Flat,
		Items:        string(items),
		PeriodFrom:   period.From,
		PeriodTo:     period.To,
		DueDate:      inv.DueDate,
		Notes:        inv.Notes,
		Currency:     inv.Currency,
		Subtotal:     inv.Subtotal.Amount,
		Tax:          inv.Tax.Amount,
		OldArrears:   inv.OldArrears.Amount,
		TotalAmount:  inv.TotalAmount.Amount,
		Status:       string(inv.Status),
		PaidAt:       inv.PaidAt,
		PaymentRef:   inv.PaymentRef,
		Metadata:     encodeMetadata(inv.Metadata),
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := id.ParseResidentID(m.CustomerID)
	if err != nil {
		return nil, err
	}

	var items []invoice.LineItem
	if m.Items != "" {
		if err := json.Unmarshal([]byte(m.Items), &items); err != nil {
			return nil, err
		}
	}

	money := func(amount int64) types.Money { return types.Money{Amount: amount, Currency: m.Currency} }

	return &invoice.Invoice{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            invID,
		SocietyID:     m.SocietyID,
		CustomerID:    customerID,
		CustomerName:  m.CustomerName,
		Flat:          m.Flat,
		Items:         items,
		BillingPeriod: invoice.Period{From: m.PeriodFrom.UTC(), To: m.PeriodTo.UTC()},
		DueDate:       m.DueDate,
		Notes:         m.Notes,
		Currency:      m.Currency,
		Subtotal:      money(m.Subtotal),
		Tax:           money(m.Tax),
		OldArrears:    money(m.OldArrears),
		TotalAmount:   money(m.TotalAmount),
		Status:        invoice.Status(m.Status),
		PaidAt:        m.PaidAt,
		PaymentRef:    m.PaymentRef,
		Metadata:      decodeMetadata(m.Metadata),
	}, nil
}

type noticeModel struct {
	grove.BaseModel `grove:"table:dues_notices"`

	ID           string     `grove:"id,pk"`
	NoticeNumber string     `grove:"notice_number"`
	NoticeYear   int        `grove:"notice_year"`
	NoticeSeq    int        `grove:"notice_seq"`
	SocietyID    string     `grove:"society_id"`
	TenantID     string     `grove:"tenant_id"`
	InvoiceID    string     `grove:"invoice_id"`
	Subject      string     `grove:"subject"`
	Content      string     `grove:"content"`
	Status       string     `grove:"status"`
	SentAt       *time.Time `grove:"sent_at"`
	ResolvedAt   *time.Time `grove:"resolved_at"`
	DispatchRef  string     `grove:"dispatch_ref"`
	Metadata     string     `grove:"metadata"`
	CreatedAt    time.Time  `grove:"created_at"`
	UpdatedAt    time.Time  `grove:"updated_at"`
}

func toNoticeModel(n *notice.Notice) *noticeModel {
	invoiceID := ""
	if n.HasInvoice() {
		invoiceID = n.InvoiceID.String()
	}
	return &noticeModel{
		ID:           n.ID.String(),
		NoticeNumber: n.NoticeNumber,
		SocietyID:    n.SocietyID,
		TenantID:     n.TenantID.String(),
		InvoiceID:    invoiceID,
		Subject:      n.Subject,
		Content:      n.Content,
		Status:       string(n.Status),
		SentAt:       n.SentAt,
		ResolvedAt:   n.ResolvedAt,
		DispatchRef:  n.DispatchRef,
		Metadata:     encodeMetadata(n.Metadata),
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func fromNoticeModel(m *noticeModel) (*notice.Notice, error) {
	noticeID, err := id.ParseNoticeID(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := id.ParseResidentID(m.TenantID)
	if err != nil {
		return nil, err
	}
	invoiceID, err := id.ParseOptional(m.InvoiceID, id.PrefixInvoice)
	if err != nil {
		return nil, err
	}
	return &notice.Notice{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           noticeID,
		NoticeNumber: m.NoticeNumber,
		SocietyID:    m.SocietyID,
		TenantID:     tenantID,
		InvoiceID:    invoiceID,
		Subject:      m.Subject,
		Content:      m.Content,
		Status:       notice.Status(m.Status),
		SentAt:       m.SentAt,
		ResolvedAt:   m.ResolvedAt,
		DispatchRef:  m.DispatchRef,
		Metadata:     decodeMetadata(m.Metadata),
	}, nil
}

func encodeMetadata(md map[string]string) string {
	if len(md) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(md) //nolint:errcheck // string maps always marshal
	return string(b)
}

func decodeMetadata(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	var md map[string]string
	_ = json.Unmarshal([]byte(s), &md) //nolint:errcheck // best-effort
	return md
}
