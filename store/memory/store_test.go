package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/resident"
	"github.com/xraph/dues/store/memory"
	"github.com/xraph/dues/types"
)

var march = invoice.Period{
	From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
}

func newInvoice(customer id.ID, period invoice.Period, created time.Time) *invoice.Invoice {
	return &invoice.Invoice{
		Entity:        types.NewEntity(created),
		ID:            id.NewInvoiceID(),
		SocietyID:     "soc",
		CustomerID:    customer,
		BillingPeriod: period,
		Items:         []invoice.LineItem{{Name: "Maintenance", Price: types.INR(200000), Quantity: 1}},
		TotalAmount:   types.INR(236000),
		Status:        invoice.StatusPending,
	}
}

func TestResidents(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	active := &resident.Resident{Entity: types.NewEntity(t0), ID: id.NewResidentID(), SocietyID: "soc", Name: "Asha", Flat: "A-1", Status: resident.StatusActive}
	gone := &resident.Resident{Entity: types.NewEntity(t0.Add(time.Hour)), ID: id.NewResidentID(), SocietyID: "soc", Name: "Bala", Flat: "A-2", Status: resident.StatusMovedOut}
	other := &resident.Resident{Entity: types.NewEntity(t0), ID: id.NewResidentID(), SocietyID: "elsewhere", Name: "Chitra", Flat: "C-1", Status: resident.StatusActive}
	for _, r := range []*resident.Resident{active, gone, other} {
		if err := s.CreateResident(ctx, r); err != nil {
			t.Fatalf("CreateResident: %v", err)
		}
	}
	if err := s.CreateResident(ctx, active); !errors.Is(err, dues.ErrAlreadyExists) {
		t.Errorf("duplicate resident: got %v", err)
	}

	all, _ := s.ListResidents(ctx, "soc", resident.ListOpts{})
	if len(all) != 2 || all[0].Name != "Asha" {
		t.Errorf("ListResidents: got %d, first %v", len(all), all)
	}
	onlyActive, _ := s.ListResidents(ctx, "soc", resident.ListOpts{Status: resident.StatusActive})
	if len(onlyActive) != 1 {
		t.Errorf("status filter: got %d", len(onlyActive))
	}

	got, err := s.GetResident(ctx, active.ID)
	if err != nil {
		t.Fatalf("GetResident: %v", err)
	}
	got.Name = "mutated"
	again, _ := s.GetResident(ctx, active.ID)
	if again.Name != "Asha" {
		t.Error("store should not share memory with callers")
	}

	if _, err := s.GetResident(ctx, id.NewResidentID()); !dues.IsNotFound(err) {
		t.Errorf("missing resident: got %v", err)
	}
}

func TestInvoicePeriodUniqueness(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	cust := id.NewResidentID()
	now := time.Now()

	if err := s.CreateInvoice(ctx, newInvoice(cust, march, now)); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if err := s.CreateInvoice(ctx, newInvoice(cust, march, now)); !errors.Is(err, dues.ErrInvoiceExists) {
		t.Errorf("same period: got %v, want ErrInvoiceExists", err)
	}

	april := invoice.Period{From: march.From.AddDate(0, 1, 0), To: march.To.AddDate(0, 1, 0)}
	if err := s.CreateInvoice(ctx, newInvoice(cust, april, now)); err != nil {
		t.Errorf("next period: %v", err)
	}
	if err := s.CreateInvoice(ctx, newInvoice(id.NewResidentID(), march, now)); err != nil {
		t.Errorf("other customer same period: %v", err)
	}
}

func TestListInvoicesFilters(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	a, b := id.NewResidentID(), id.NewResidentID()
	t0 := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	first := newInvoice(a, march, t0)
	second := newInvoice(b, march, t0.Add(time.Minute))
	april := invoice.Period{From: march.From.AddDate(0, 1, 0), To: march.To.AddDate(0, 1, 0)}
	third := newInvoice(a, april, t0.Add(2*time.Minute))
	for _, inv := range []*invoice.Invoice{first, second, third} {
		_ = s.CreateInvoice(ctx, inv)
	}
	_ = s.MarkInvoicePaid(ctx, second.ID, t0, "UPI-1")

	all, _ := s.ListInvoices(ctx, "soc", invoice.ListOpts{})
	if len(all) != 3 || all[0].ID.String() != third.ID.String() {
		t.Fatalf("expected newest first, got %d", len(all))
	}

	unpaid, _ := s.ListInvoices(ctx, "soc", invoice.ListOpts{Statuses: []invoice.Status{invoice.StatusPending, invoice.StatusOverdue}})
	if len(unpaid) != 2 {
		t.Errorf("status filter: got %d", len(unpaid))
	}

	forA, _ := s.ListInvoices(ctx, "soc", invoice.ListOpts{CustomerID: a})
	if len(forA) != 2 {
		t.Errorf("customer filter: got %d", len(forA))
	}

	fromApril, _ := s.ListInvoices(ctx, "soc", invoice.ListOpts{From: april.From})
	if len(fromApril) != 1 {
		t.Errorf("period filter: got %d", len(fromApril))
	}

	page, _ := s.ListInvoices(ctx, "soc", invoice.ListOpts{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID.String() != second.ID.String() {
		t.Errorf("pagination: got %v", page)
	}
	if beyond, _ := s.ListInvoices(ctx, "soc", invoice.ListOpts{Offset: 10}); len(beyond) != 0 {
		t.Errorf("offset beyond end: got %d", len(beyond))
	}
}

func TestMarkInvoicePaid(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	inv := newInvoice(id.NewResidentID(), march, time.Now())
	_ = s.CreateInvoice(ctx, inv)

	paidAt := time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)
	if err := s.MarkInvoicePaid(ctx, inv.ID, paidAt, "UPI-123"); err != nil {
		t.Fatalf("MarkInvoicePaid: %v", err)
	}
	got, _ := s.GetInvoice(ctx, inv.ID)
	if got.Status != invoice.StatusPaid || got.PaymentRef != "UPI-123" || !got.PaidAt.Equal(paidAt) {
		t.Errorf("unexpected invoice after payment: %+v", got)
	}
	if err := s.MarkInvoicePaid(ctx, inv.ID, paidAt, "again"); !errors.Is(err, dues.ErrInvoicePaid) {
		t.Errorf("double payment: got %v", err)
	}
	if err := s.MarkInvoicePaid(ctx, id.NewInvoiceID(), paidAt, ""); !errors.Is(err, dues.ErrInvoiceNotFound) {
		t.Errorf("missing invoice: got %v", err)
	}
}

func TestNoticeNumbering(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	t2024 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t2025 := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	mk := func(society string, at time.Time) *notice.Notice {
		n := &notice.Notice{Entity: types.NewEntity(at), ID: id.NewNoticeID(), SocietyID: society, TenantID: id.NewResidentID(), Status: notice.StatusDraft}
		if err := s.CreateNotice(ctx, n); err != nil {
			t.Fatalf("CreateNotice: %v", err)
		}
		return n
	}

	want := []string{"LN-2024-0001", "LN-2024-0002", "LN-2025-0001", "LN-2024-0001"}
	got := []string{
		mk("soc", t2024).NoticeNumber,
		mk("soc", t2024).NoticeNumber,
		mk("soc", t2025).NoticeNumber,
		mk("other", t2024).NoticeNumber,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notice %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNoticeTransitions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	n := &notice.Notice{Entity: types.NewEntity(time.Now()), ID: id.NewNoticeID(), SocietyID: "soc", TenantID: id.NewResidentID(), Status: notice.StatusDraft}
	_ = s.CreateNotice(ctx, n)

	at := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := s.TransitionNotice(ctx, n.ID, notice.StatusDraft, notice.StatusSent, at, "ref-1"); err != nil {
		t.Fatalf("draft->sent: %v", err)
	}
	if err := s.TransitionNotice(ctx, n.ID, notice.StatusDraft, notice.StatusSent, at, "ref-2"); !errors.Is(err, dues.ErrNoticeConflict) {
		t.Errorf("stale compare-and-set: got %v", err)
	}

	got, _ := s.GetNotice(ctx, n.ID)
	if got.Status != notice.StatusSent || got.SentAt == nil || got.DispatchRef != "ref-1" {
		t.Errorf("after send: %+v", got)
	}
	if err := s.DeleteDraftNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoticeNotDraft) {
		t.Errorf("delete sent: got %v", err)
	}

	if err := s.TransitionNotice(ctx, n.ID, notice.StatusSent, notice.StatusResolved, at, ""); err != nil {
		t.Fatalf("sent->resolved: %v", err)
	}
	got, _ = s.GetNotice(ctx, n.ID)
	if got.ResolvedAt == nil || got.DispatchRef != "ref-1" {
		t.Errorf("after resolve: %+v", got)
	}

	draft := &notice.Notice{Entity: types.NewEntity(time.Now()), ID: id.NewNoticeID(), SocietyID: "soc", TenantID: id.NewResidentID(), Status: notice.StatusDraft}
	_ = s.CreateNotice(ctx, draft)
	if err := s.DeleteDraftNotice(ctx, draft.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := s.GetNotice(ctx, draft.ID); !errors.Is(err, dues.ErrNoticeNotFound) {
		t.Errorf("deleted notice still readable: %v", err)
	}
}

func TestClose(t *testing.T) {
	s := memory.New()
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, dues.ErrStoreClosed) {
		t.Errorf("Ping after close: got %v", err)
	}
}
