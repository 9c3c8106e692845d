package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/store/sqlite"
	"github.com/xraph/dues/types"
)

var (
	now   = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)
	march = invoice.Period{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	april = invoice.Period{
		From: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	drv := sqlitedriver.New()
	if err := drv.Open(context.Background(), path); err != nil {
		t.Fatalf("open: %v", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		t.Fatalf("grove.Open: %v", err)
	}
	return sqlite.New(db)
}

func newEngine(t *testing.T, s *sqlite.Store) *dues.Engine {
	t.Helper()
	e := dues.New(s,
		dues.WithClock(func() time.Time { return now }),
		dues.WithSociety("greenwood", notice.Society{Name: "Greenwood Heights CHS"}),
		dues.WithDispatcher(notify.Func(func(_ context.Context, msg notify.Message) (*notify.Receipt, error) {
			return &notify.Receipt{Ref: "ref-" + msg.IdempotencyKey, Channel: msg.Channel, AcceptedAt: now}, nil
		})),
	)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e
}

func TestEngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dues.db")
	e := newEngine(t, openStore(t, path))

	r, err := e.CreateResident(ctx, dues.CreateResidentInput{Name: "Asha", Flat: "A-101", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("CreateResident: %v", err)
	}
	got, err := e.GetResident(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetResident: %v", err)
	}
	if got.Flat != "A-101" || !got.CreatedAt.Equal(now) {
		t.Errorf("resident = %+v", got)
	}

	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	items := []invoice.LineItem{{Name: "Maintenance", Price: types.INR(200000), Quantity: 1}}
	first, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: items, BillingPeriod: march, DueDate: &due})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if first.TotalAmount.Amount != 236000 {
		t.Errorf("total = %d, want 236000", first.TotalAmount.Amount)
	}

	loaded, err := e.GetInvoice(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if !loaded.BillingPeriod.From.Equal(march.From) || !loaded.BillingPeriod.To.Equal(march.To) {
		t.Errorf("period = %s", loaded.BillingPeriod)
	}
	if loaded.DueDate == nil || !loaded.DueDate.Equal(due) {
		t.Errorf("due date = %v", loaded.DueDate)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Price.Amount != 200000 {
		t.Errorf("items = %+v", loaded.Items)
	}
	if loaded.EffectiveStatus(now) != invoice.StatusOverdue {
		t.Errorf("status = %s, want overdue", loaded.EffectiveStatus(now))
	}

	if _, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: items, BillingPeriod: march}); !errors.Is(err, dues.ErrInvoiceExists) {
		t.Errorf("duplicate period: got %v", err)
	}

	second, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: items, BillingPeriod: april})
	if err != nil {
		t.Fatalf("CreateInvoice april: %v", err)
	}
	if second.OldArrears.Amount != 236000 {
		t.Errorf("arrears = %d, want 236000", second.OldArrears.Amount)
	}

	view, err := e.Defaulters(ctx)
	if err != nil {
		t.Fatalf("Defaulters: %v", err)
	}
	if view.Stats.Total != 1 || view.Stats.RevenueAtRisk.Amount != 236000+second.TotalAmount.Amount {
		t.Errorf("stats = %+v", view.Stats)
	}

	paid, err := e.MarkInvoicePaid(ctx, first.ID, "UTR-1")
	if err != nil {
		t.Fatalf("MarkInvoicePaid: %v", err)
	}
	if paid.Status != invoice.StatusPaid || paid.PaidAt == nil {
		t.Errorf("paid = %+v", paid)
	}
	if _, err := e.MarkInvoicePaid(ctx, first.ID, "UTR-2"); !errors.Is(err, dues.ErrInvoicePaid) {
		t.Errorf("second payment: got %v", err)
	}

	open, err := e.ListInvoices(ctx, invoice.ListOpts{Statuses: []invoice.Status{invoice.StatusPending, invoice.StatusOverdue}})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(open) != 1 || open[0].ID != second.ID {
		t.Errorf("open invoices = %d", len(open))
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Reopening runs the migrations again against the existing schema.
	again := newEngine(t, openStore(t, path))
	defer again.Stop()
	if _, err := again.GetInvoice(ctx, second.ID); err != nil {
		t.Errorf("GetInvoice after reopen: %v", err)
	}
}

func TestNoticeNumbersSurviveDeletion(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, openStore(t, filepath.Join(t.TempDir(), "dues.db")))
	defer e.Stop()

	r, err := e.CreateResident(ctx, dues.CreateResidentInput{Name: "Bala", Flat: "B-2", Email: "bala@example.com"})
	if err != nil {
		t.Fatalf("CreateResident: %v", err)
	}
	create := func() *notice.Notice {
		t.Helper()
		n, err := e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Subject: "Dues", Content: "Pay within 7 days."})
		if err != nil {
			t.Fatalf("CreateLegalNotice: %v", err)
		}
		return n
	}

	first := create()
	second := create()
	if first.NoticeNumber != "LN-2024-0001" || second.NoticeNumber != "LN-2024-0002" {
		t.Fatalf("numbers = %s, %s", first.NoticeNumber, second.NoticeNumber)
	}
	if err := e.DeleteLegalNotice(ctx, second.ID); err != nil {
		t.Fatalf("DeleteLegalNotice: %v", err)
	}
	if third := create(); third.NoticeNumber != "LN-2024-0003" {
		t.Errorf("after delete = %s, want LN-2024-0003", third.NoticeNumber)
	}

	sent, err := e.SendLegalNotice(ctx, first.ID)
	if err != nil {
		t.Fatalf("SendLegalNotice: %v", err)
	}
	if sent.Status != notice.StatusSent || sent.SentAt == nil || sent.DispatchRef != "ref-"+first.ID.String() {
		t.Errorf("sent = %+v", sent)
	}
	if _, err := e.SendLegalNotice(ctx, first.ID); !errors.Is(err, dues.ErrNoticeAlreadySent) {
		t.Errorf("second send: got %v", err)
	}
	if err := e.DeleteLegalNotice(ctx, first.ID); !errors.Is(err, dues.ErrNoticeNotDraft) {
		t.Errorf("delete sent: got %v", err)
	}

	resolved, err := e.ResolveLegalNotice(ctx, first.ID)
	if err != nil {
		t.Fatalf("ResolveLegalNotice: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}
}
