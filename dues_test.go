package dues_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/defaulter"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/resident"
	"github.com/xraph/dues/store/memory"
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
	maintenance = []invoice.LineItem{{Name: "Maintenance", Price: types.INR(200000), Quantity: 1}}
)

// recordingDispatcher counts calls and fails while fail is set.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []notify.Message
	fail  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) (*notify.Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, msg)
	if d.fail != nil {
		return nil, d.fail
	}
	return &notify.Receipt{Ref: "ref-" + msg.IdempotencyKey, Channel: msg.Channel, AcceptedAt: now}, nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func newEngine(t *testing.T, opts ...dues.Option) (*dues.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	base := []dues.Option{
		dues.WithClock(func() time.Time { return now }),
		dues.WithSociety("greenwood", notice.Society{Name: "Greenwood Heights CHS", Address: "Pune"}),
	}
	e := dues.New(s, append(base, opts...)...)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e, s
}

func mustResident(t *testing.T, e *dues.Engine, name, flat string) *resident.Resident {
	t.Helper()
	r, err := e.CreateResident(context.Background(), dues.CreateResidentInput{
		Name:  name,
		Flat:  flat,
		Email: strings.ToLower(name) + "@example.com",
		Phone: "+910000000000",
	})
	if err != nil {
		t.Fatalf("CreateResident: %v", err)
	}
	return r
}

func TestCreateInvoiceTotals(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	r := mustResident(t, e, "Asha", "B-1204")

	first, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if first.Subtotal.Amount != 200000 || first.Tax.Amount != 36000 || first.OldArrears.Amount != 0 || first.TotalAmount.Amount != 236000 {
		t.Errorf("first invoice: subtotal=%s tax=%s arrears=%s total=%s", first.Subtotal, first.Tax, first.OldArrears, first.TotalAmount)
	}
	if first.Status != invoice.StatusPending || first.CustomerName != "Asha" {
		t.Errorf("first invoice: status=%s name=%q", first.Status, first.CustomerName)
	}

	second, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: april})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if second.OldArrears.Amount != 236000 || second.TotalAmount.Amount != 200000+36000+236000 {
		t.Errorf("second invoice: arrears=%s total=%s", second.OldArrears, second.TotalAmount)
	}
}

func TestCreateInvoiceRollsUpArrears(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	r := mustResident(t, e, "Asha", "B-1204")

	prior := &invoice.Invoice{
		Entity:        types.NewEntity(now.AddDate(0, -1, 0)),
		ID:            id.NewInvoiceID(),
		SocietyID:     "greenwood",
		CustomerID:    r.ID,
		BillingPeriod: invoice.Period{From: march.From.AddDate(0, -1, 0), To: march.From.AddDate(0, 0, -1)},
		TotalAmount:   types.INR(100000),
		Status:        invoice.StatusPending,
	}
	if err := s.CreateInvoice(ctx, prior); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inv, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.OldArrears.Amount != 100000 || inv.TotalAmount.Amount != 336000 {
		t.Errorf("arrears=%s total=%s, want ₹1000.00 and ₹3360.00", inv.OldArrears, inv.TotalAmount)
	}
}

func TestCreateInvoiceRejects(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	r := mustResident(t, e, "Asha", "B-1204")
	gone := mustResident(t, e, "Bala", "B-1205")
	if _, err := e.MoveOutResident(ctx, gone.ID); err != nil {
		t.Fatalf("MoveOutResident: %v", err)
	}
	if _, err := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march}); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	tests := []struct {
		name  string
		in    dues.CreateInvoiceInput
		check func(error) bool
	}{
		{"no items", dues.CreateInvoiceInput{CustomerID: r.ID, BillingPeriod: april}, dues.IsValidation},
		{"negative price", dues.CreateInvoiceInput{CustomerID: r.ID, BillingPeriod: april,
			Items: []invoice.LineItem{{Name: "Refund", Price: types.INR(-1), Quantity: 1}}}, dues.IsValidation},
		{"zero quantity", dues.CreateInvoiceInput{CustomerID: r.ID, BillingPeriod: april,
			Items: []invoice.LineItem{{Name: "Parking", Price: types.INR(50000)}}}, dues.IsValidation},
		{"wrong currency", dues.CreateInvoiceInput{CustomerID: r.ID, BillingPeriod: april,
			Items: []invoice.LineItem{{Name: "Parking", Price: types.USD(100), Quantity: 1}}}, dues.IsValidation},
		{"inverted period", dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance,
			BillingPeriod: invoice.Period{From: april.To, To: april.From}}, dues.IsValidation},
		{"unknown customer", dues.CreateInvoiceInput{CustomerID: id.NewResidentID(), Items: maintenance, BillingPeriod: april},
			func(err error) bool { return dues.IsValidation(err) && dues.IsNotFound(err) }},
		{"moved out", dues.CreateInvoiceInput{CustomerID: gone.ID, Items: maintenance, BillingPeriod: april},
			func(err error) bool { return errors.Is(err, dues.ErrResidentInactive) }},
		{"same period twice", dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march},
			func(err error) bool { return errors.Is(err, dues.ErrInvoiceExists) }},
		{"amount overflows", dues.CreateInvoiceInput{CustomerID: r.ID, BillingPeriod: april,
			Items: []invoice.LineItem{{Name: "Corpus", Price: types.INR(1 << 40), Quantity: 1 << 30}}},
			func(err error) bool { return dues.IsValidation(err) && errors.Is(err, types.ErrOverflow) }},
		{"tax overflows", dues.CreateInvoiceInput{CustomerID: r.ID, BillingPeriod: april,
			Items: []invoice.LineItem{{Name: "Corpus", Price: types.INR(math.MaxInt64 - 100), Quantity: 1}}},
			func(err error) bool { return dues.IsValidation(err) && errors.Is(err, types.ErrOverflow) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateInvoice(ctx, tt.in)
			if err == nil || !tt.check(err) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestCurrencyChangeKeepsLedgerApart(t *testing.T) {
	ctx := context.Background()
	inr, s := newEngine(t)
	r := mustResident(t, inr, "Asha", "B-1204")
	if _, err := inr.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march}); err != nil {
		t.Fatalf("CreateInvoice inr: %v", err)
	}

	usd := dues.New(s,
		dues.WithClock(func() time.Time { return now }),
		dues.WithSociety("greenwood", notice.Society{Name: "Greenwood Heights CHS"}),
		dues.WithCurrency("usd"),
	)
	inv, err := usd.CreateInvoice(ctx, dues.CreateInvoiceInput{
		CustomerID:    r.ID,
		Items:         []invoice.LineItem{{Name: "Maintenance", Price: types.USD(1000), Quantity: 1}},
		BillingPeriod: april,
	})
	if err != nil {
		t.Fatalf("CreateInvoice usd: %v", err)
	}
	if !inv.OldArrears.Equal(types.USD(0)) || !inv.TotalAmount.Equal(types.USD(1180)) {
		t.Errorf("usd invoice = arrears %v total %v", inv.OldArrears, inv.TotalAmount)
	}

	view, err := usd.Defaulters(ctx)
	if err != nil {
		t.Fatalf("Defaulters usd: %v", err)
	}
	if view.Stats.Total != 1 || !view.Stats.RevenueAtRisk.Equal(types.USD(1180)) {
		t.Errorf("usd stats = %+v", view.Stats)
	}
	view, err = inr.Defaulters(ctx)
	if err != nil {
		t.Fatalf("Defaulters inr: %v", err)
	}
	if !view.Stats.RevenueAtRisk.Equal(types.INR(236000)) {
		t.Errorf("inr stats = %+v", view.Stats)
	}
}

func TestCreateInvoicesBulk(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	for _, name := range []string{"Asha", "Bala", "Chitra"} {
		mustResident(t, e, name, name[:1]+"-101")
	}
	broken := &resident.Resident{
		Entity:    types.NewEntity(now),
		ID:        id.NewResidentID(),
		SocietyID: "greenwood",
		Name:      "Deepak",
		Status:    resident.StatusActive,
	}
	if err := s.CreateResident(ctx, broken); err != nil {
		t.Fatalf("seed: %v", err)
	}
	gone := mustResident(t, e, "Esha", "E-101")
	_, _ = e.MoveOutResident(ctx, gone.ID)

	res, err := e.CreateInvoicesBulk(ctx, dues.BulkInput{Items: maintenance, BillingPeriod: march})
	if err != nil {
		t.Fatalf("CreateInvoicesBulk: %v", err)
	}
	if res.CreatedCount != 3 || len(res.Created) != 3 {
		t.Errorf("created = %d, want 3", res.CreatedCount)
	}
	if len(res.FailedCustomerIDs) != 1 || res.FailedCustomerIDs[0].String() != broken.ID.String() {
		t.Errorf("failed = %v, want [%s]", res.FailedCustomerIDs, broken.ID)
	}
	if !res.Partial() || !dues.IsValidation(res.Failures[broken.ID.String()]) {
		t.Errorf("failure for %s = %v", broken.ID, res.Failures[broken.ID.String()])
	}

	again, err := e.CreateInvoicesBulk(ctx, dues.BulkInput{Items: maintenance, BillingPeriod: march})
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if again.CreatedCount != 0 || len(again.SkippedCustomerIDs) != 3 || len(again.FailedCustomerIDs) != 1 {
		t.Errorf("rerun: created=%d skipped=%d failed=%d", again.CreatedCount, len(again.SkippedCustomerIDs), len(again.FailedCustomerIDs))
	}

	all, _ := e.ListInvoices(ctx, invoice.ListOpts{})
	if len(all) != 3 {
		t.Errorf("invoices in ledger = %d, want 3", len(all))
	}
	if forGone, _ := e.ListInvoicesForCustomer(ctx, gone.ID); len(forGone) != 0 {
		t.Errorf("moved-out resident billed %d times", len(forGone))
	}
}

func TestCreateInvoicesBulkInvalidTemplate(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	mustResident(t, e, "Asha", "A-101")

	_, err := e.CreateInvoicesBulk(ctx, dues.BulkInput{
		Items:         []invoice.LineItem{{Name: "", Price: types.INR(100), Quantity: 1}},
		BillingPeriod: march,
	})
	if !dues.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
	if all, _ := e.ListInvoices(ctx, invoice.ListOpts{}); len(all) != 0 {
		t.Errorf("invalid template wrote %d invoices", len(all))
	}
}

func TestCreateInvoicesBulkCanceled(t *testing.T) {
	e, _ := newEngine(t)
	mustResident(t, e, "Asha", "A-101")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := e.CreateInvoicesBulk(ctx, dues.BulkInput{Items: maintenance, BillingPeriod: march})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if res == nil || res.CreatedCount != 0 {
		t.Errorf("partial result = %+v", res)
	}
}

func TestLazyOverdue(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	r := mustResident(t, e, "Asha", "A-101")

	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)
	late, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march, DueDate: &past})
	onTime, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: april, DueDate: &future})

	got, err := e.GetInvoice(ctx, late.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.Status != invoice.StatusOverdue {
		t.Errorf("late invoice status = %s, want overdue", got.Status)
	}

	overdue, _ := e.ListInvoices(ctx, invoice.ListOpts{Status: invoice.StatusOverdue})
	if len(overdue) != 1 || overdue[0].ID.String() != late.ID.String() {
		t.Errorf("overdue filter returned %d invoices", len(overdue))
	}
	pending, _ := e.ListInvoices(ctx, invoice.ListOpts{Status: invoice.StatusPending})
	if len(pending) != 1 || pending[0].ID.String() != onTime.ID.String() {
		t.Errorf("pending filter returned %d invoices", len(pending))
	}
	if _, err := e.ListInvoices(ctx, invoice.ListOpts{Status: "void"}); !dues.IsValidation(err) {
		t.Errorf("unknown status: got %v", err)
	}
}

func TestDefaultersAndPayment(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	chronic := mustResident(t, e, "Asha", "A-101")
	mild := mustResident(t, e, "Bala", "B-101")

	longAgo := now.AddDate(0, 0, -200)
	recent := now.AddDate(0, 0, -45)
	inv, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: chronic.ID, Items: maintenance, BillingPeriod: march, DueDate: &longAgo})
	_, _ = e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: mild.ID, Items: maintenance, BillingPeriod: march, DueDate: &recent})

	view, err := e.Defaulters(ctx)
	if err != nil {
		t.Fatalf("Defaulters: %v", err)
	}
	if view.Stats.Total != 2 || view.Stats.Chronic != 1 || view.Stats.Mild != 1 {
		t.Errorf("stats = %+v", view.Stats)
	}
	if view.Stats.RevenueAtRisk.Amount != 2*236000 {
		t.Errorf("revenue at risk = %s", view.Stats.RevenueAtRisk)
	}
	if rec := view.Find(chronic.ID); rec == nil || rec.Severity != defaulter.SeverityChronic || rec.MonthsPending != 6 {
		t.Errorf("chronic record = %+v", rec)
	}
	if view.Records[0].CustomerID.String() != chronic.ID.String() {
		t.Error("chronic defaulter should sort first")
	}

	paid, err := e.MarkInvoicePaid(ctx, inv.ID, "UPI-42")
	if err != nil {
		t.Fatalf("MarkInvoicePaid: %v", err)
	}
	if paid.Status != invoice.StatusPaid || paid.PaymentRef != "UPI-42" || paid.PaidAt == nil {
		t.Errorf("paid invoice = %+v", paid)
	}
	if _, err := e.MarkInvoicePaid(ctx, inv.ID, "again"); !errors.Is(err, dues.ErrInvoicePaid) {
		t.Errorf("double payment: got %v", err)
	}

	view, _ = e.Defaulters(ctx)
	if view.Find(chronic.ID) != nil || view.Stats.Total != 1 || view.Stats.RevenueAtRisk.Amount != 236000 {
		t.Errorf("after payment: %+v", view.Stats)
	}
}

func TestDefaultersEmpty(t *testing.T) {
	e, _ := newEngine(t)
	view, err := e.Defaulters(context.Background())
	if err != nil {
		t.Fatalf("Defaulters: %v", err)
	}
	if view.Records == nil || len(view.Records) != 0 || view.Stats.Total != 0 || !view.Stats.RevenueAtRisk.IsZero() {
		t.Errorf("empty ledger view = %+v", view)
	}
}

func TestLegalNoticeLifecycle(t *testing.T) {
	ctx := context.Background()
	d := &recordingDispatcher{}
	e, _ := newEngine(t, dues.WithDispatcher(d))
	r := mustResident(t, e, "Asha", "B-1204")

	n, err := e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Content: "Please pay."})
	if err != nil {
		t.Fatalf("CreateLegalNotice: %v", err)
	}
	if n.Status != notice.StatusDraft || n.NoticeNumber != "LN-2024-0001" || n.SentAt != nil {
		t.Errorf("draft = %+v", n)
	}
	if !strings.Contains(n.Subject, "B-1204") {
		t.Errorf("default subject = %q", n.Subject)
	}

	sent, err := e.SendLegalNotice(ctx, n.ID)
	if err != nil {
		t.Fatalf("SendLegalNotice: %v", err)
	}
	if sent.Status != notice.StatusSent || sent.SentAt == nil || sent.DispatchRef != "ref-"+n.ID.String() {
		t.Errorf("sent = %+v", sent)
	}
	if d.count() != 1 {
		t.Errorf("dispatcher called %d times, want 1", d.count())
	}
	msg := d.calls[0]
	if msg.Channel != notify.ChannelEmail || msg.To != "asha@example.com" || msg.IdempotencyKey != n.ID.String() {
		t.Errorf("dispatched message = %+v", msg)
	}

	if _, err := e.SendLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoticeAlreadySent) {
		t.Errorf("second send: got %v", err)
	}
	if d.count() != 1 {
		t.Errorf("second send reached the dispatcher")
	}
	if err := e.DeleteLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoticeNotDraft) {
		t.Errorf("delete sent: got %v", err)
	}

	resolved, err := e.ResolveLegalNotice(ctx, n.ID)
	if err != nil {
		t.Fatalf("ResolveLegalNotice: %v", err)
	}
	if resolved.Status != notice.StatusResolved || resolved.ResolvedAt == nil || resolved.SentAt == nil {
		t.Errorf("resolved = %+v", resolved)
	}
	if _, err := e.ResolveLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoticeResolved) {
		t.Errorf("resolve twice: got %v", err)
	}
	if _, err := e.SendLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoticeResolved) {
		t.Errorf("send resolved: got %v", err)
	}
}

func TestSendLegalNoticeDispatchFailure(t *testing.T) {
	ctx := context.Background()
	d := &recordingDispatcher{fail: errors.New("smtp unavailable")}
	e, _ := newEngine(t, dues.WithDispatcher(d))
	r := mustResident(t, e, "Asha", "B-1204")
	n, _ := e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Content: "Please pay."})

	_, err := e.SendLegalNotice(ctx, n.ID)
	var de *dues.DispatchError
	if !errors.As(err, &de) || !dues.IsRetryable(err) || de.Channel != "email" {
		t.Fatalf("got %v, want retryable *DispatchError", err)
	}
	still, _ := e.GetLegalNotice(ctx, n.ID)
	if still.Status != notice.StatusDraft || still.SentAt != nil {
		t.Errorf("failed send changed notice: %+v", still)
	}

	d.mu.Lock()
	d.fail = nil
	d.mu.Unlock()
	if _, err := e.SendLegalNotice(ctx, n.ID); err != nil {
		t.Errorf("retry: %v", err)
	}
}

func TestSendLegalNoticePreconditions(t *testing.T) {
	ctx := context.Background()

	noDispatcher, _ := newEngine(t)
	r := mustResident(t, noDispatcher, "Asha", "B-1204")
	n, _ := noDispatcher.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Content: "Please pay."})
	if _, err := noDispatcher.SendLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoDispatcher) {
		t.Errorf("no dispatcher: got %v", err)
	}

	e, _ := newEngine(t, dues.WithDispatcher(&recordingDispatcher{}))
	noEmail, _ := e.CreateResident(ctx, dues.CreateResidentInput{Name: "Bala", Flat: "B-1"})
	n, _ = e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: noEmail.ID, Content: "Please pay."})
	if _, err := e.SendLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrRecipientMissing) {
		t.Errorf("no email: got %v", err)
	}
	if _, err := e.SendLegalNotice(ctx, id.NewNoticeID()); !dues.IsNotFound(err) {
		t.Errorf("unknown notice: got %v", err)
	}
}

func TestCreateLegalNoticeRejects(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	asha := mustResident(t, e, "Asha", "A-1")
	bala := mustResident(t, e, "Bala", "B-1")
	balaInv, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: bala.ID, Items: maintenance, BillingPeriod: march})

	tests := []struct {
		name  string
		in    dues.CreateNoticeInput
		check func(error) bool
	}{
		{"missing tenant", dues.CreateNoticeInput{Content: "x"}, dues.IsValidation},
		{"missing content", dues.CreateNoticeInput{TenantID: asha.ID, Content: "  "}, dues.IsValidation},
		{"unknown tenant", dues.CreateNoticeInput{TenantID: id.NewResidentID(), Content: "x"}, dues.IsNotFound},
		{"unknown invoice", dues.CreateNoticeInput{TenantID: asha.ID, InvoiceID: id.NewInvoiceID(), Content: "x"}, dues.IsNotFound},
		{"someone else's invoice", dues.CreateNoticeInput{TenantID: asha.ID, InvoiceID: balaInv.ID, Content: "x"}, dues.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.CreateLegalNotice(ctx, tt.in); err == nil || !tt.check(err) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestDeleteLegalNotice(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	r := mustResident(t, e, "Asha", "A-1")
	n, _ := e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Content: "x"})

	if err := e.DeleteLegalNotice(ctx, n.ID); err != nil {
		t.Fatalf("DeleteLegalNotice: %v", err)
	}
	if _, err := e.GetLegalNotice(ctx, n.ID); !errors.Is(err, dues.ErrNoticeNotFound) {
		t.Errorf("deleted notice: got %v", err)
	}

	resolved, _ := e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Content: "x"})
	_, _ = e.ResolveLegalNotice(ctx, resolved.ID)
	if err := e.DeleteLegalNotice(ctx, resolved.ID); !errors.Is(err, dues.ErrNoticeNotDraft) {
		t.Errorf("delete resolved: got %v", err)
	}

	list, _ := e.ListLegalNotices(ctx, notice.ListOpts{TenantID: r.ID})
	if len(list) != 1 || list[0].NoticeNumber != "LN-2024-0002" {
		t.Errorf("remaining notices = %v", list)
	}
}

func TestSuggestNotice(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	r := mustResident(t, e, "Asha", "B-1204")
	inv, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march})

	withAmount, err := e.SuggestNotice(ctx, r.ID, inv.ID)
	if err != nil {
		t.Fatalf("SuggestNotice: %v", err)
	}
	for _, want := range []string{"Greenwood Heights CHS", "Flat B-1204", "₹2360.00", "7 days", "Management Committee"} {
		if !strings.Contains(withAmount.Content, want) {
			t.Errorf("letter missing %q", want)
		}
	}

	placeholder, err := e.SuggestNotice(ctx, r.ID, id.Nil)
	if err != nil {
		t.Fatalf("SuggestNotice: %v", err)
	}
	if !strings.Contains(placeholder.Content, notice.AmountPlaceholder) {
		t.Error("letter without invoice should carry the amount placeholder")
	}
}

func TestDispatchReminder(t *testing.T) {
	ctx := context.Background()
	d := &recordingDispatcher{}
	e, _ := newEngine(t, dues.WithDispatcher(d))
	r := mustResident(t, e, "Asha", "A-1")

	res, err := e.DispatchReminder(ctx, r.ID, notify.ChannelWhatsApp, "Your dues are pending.")
	if err != nil {
		t.Fatalf("DispatchReminder: %v", err)
	}
	if !res.Delivered || res.Ref == "" || d.calls[0].To != r.Phone {
		t.Errorf("result = %+v, message = %+v", res, d.calls[0])
	}

	if _, err := e.DispatchReminder(ctx, r.ID, "pigeon", "hi"); !errors.Is(err, dues.ErrUnsupportedChannel) || !dues.IsValidation(err) {
		t.Errorf("unknown channel: got %v", err)
	}
	if _, err := e.DispatchReminder(ctx, r.ID, notify.ChannelSMS, " "); !dues.IsValidation(err) {
		t.Errorf("empty message: got %v", err)
	}

	d.fail = errors.New("gateway down")
	res, err = e.DispatchReminder(ctx, r.ID, notify.ChannelSMS, "Pay up")
	if !dues.IsRetryable(err) || res == nil || res.Delivered {
		t.Errorf("failed reminder: result=%+v err=%v", res, err)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	r := mustResident(t, e, "Asha", "A-1")
	inv, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march})

	var buf bytes.Buffer
	if err := e.ExportInvoice(ctx, inv.ID, "json", &buf); err != nil {
		t.Fatalf("ExportInvoice json: %v", err)
	}
	if !strings.Contains(buf.String(), inv.ID.String()) {
		t.Errorf("json export missing id: %s", buf.String())
	}

	buf.Reset()
	if err := e.ExportInvoice(ctx, inv.ID, "text", &buf); err != nil {
		t.Fatalf("ExportInvoice text: %v", err)
	}
	if !strings.Contains(buf.String(), "₹2360.00") {
		t.Errorf("text export missing total: %s", buf.String())
	}

	if err := e.ExportInvoice(ctx, inv.ID, "pdf", &buf); !errors.Is(err, dues.ErrUnknownFormat) {
		t.Errorf("unknown format: got %v", err)
	}
}

type hookRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (h *hookRecorder) Name() string { return "recorder" }

func (h *hookRecorder) record(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, name)
	return nil
}

func (h *hookRecorder) OnInvoiceGenerated(context.Context, *invoice.Invoice) error {
	return h.record("invoice_generated")
}

func (h *hookRecorder) OnInvoicePaid(context.Context, *invoice.Invoice) error {
	return h.record("invoice_paid")
}

func (h *hookRecorder) OnNoticeSent(context.Context, *notice.Notice) error {
	return h.record("notice_sent")
}

func TestHooks(t *testing.T) {
	ctx := context.Background()
	rec := &hookRecorder{}
	e, _ := newEngine(t, dues.WithPlugin(rec), dues.WithDispatcher(&recordingDispatcher{}))
	r := mustResident(t, e, "Asha", "A-1")

	inv, _ := e.CreateInvoice(ctx, dues.CreateInvoiceInput{CustomerID: r.ID, Items: maintenance, BillingPeriod: march})
	_, _ = e.MarkInvoicePaid(ctx, inv.ID, "UPI-1")
	n, _ := e.CreateLegalNotice(ctx, dues.CreateNoticeInput{TenantID: r.ID, Content: "x"})
	_, _ = e.SendLegalNotice(ctx, n.ID)

	want := []string{"invoice_generated", "invoice_paid", "notice_sent"}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Errorf("hooks = %v, want %v", rec.calls, want)
	}
}
