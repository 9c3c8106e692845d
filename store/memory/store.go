// Package memory is an in-process store.Store for tests and single-node
// development. Records are copied on the way in and out, so callers never
// share memory with the store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/resident"
	duesstore "github.com/xraph/dues/store"
)

// compile-time interface check
var _ duesstore.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	residents map[string]*resident.Resident
	invoices  map[string]*invoice.Invoice
	notices   map[string]*notice.Notice

	// customer id + normalized period -> invoice id
	periods map[string]string
	// society + year -> last issued notice sequence
	noticeSeq map[string]int
}

func New() *Store {
	return &Store{
		residents: make(map[string]*resident.Resident),
		invoices:  make(map[string]*invoice.Invoice),
		notices:   make(map[string]*notice.Notice),
		periods:   make(map[string]string),
		noticeSeq: make(map[string]int),
	}
}

// ==================== Resident Store ====================

func (s *Store) CreateResident(_ context.Context, r *resident.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dues.ErrStoreClosed
	}
	if _, exists := s.residents[r.ID.String()]; exists {
		return dues.ErrAlreadyExists
	}
	s.residents[r.ID.String()] = cloneResident(r)
	return nil
}

func (s *Store) GetResident(_ context.Context, residentID id.ResidentID) (*resident.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.residents[residentID.String()]; ok {
		return cloneResident(r), nil
	}
	return nil, dues.ErrResidentNotFound
}

func (s *Store) ListResidents(_ context.Context, societyID string, opts resident.ListOpts) ([]*resident.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*resident.Resident, 0)
	for _, r := range s.residents {
		if r.SocietyID != societyID {
			continue
		}
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		result = append(result, cloneResident(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateResident(_ context.Context, r *resident.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.residents[r.ID.String()]; !ok {
		return dues.ErrResidentNotFound
	}
	s.residents[r.ID.String()] = cloneResident(r)
	return nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dues.ErrStoreClosed
	}
	if _, exists := s.invoices[inv.ID.String()]; exists {
		return dues.ErrAlreadyExists
	}
	key := periodKey(inv)
	if _, exists := s.periods[key]; exists {
		return dues.ErrInvoiceExists
	}
	s.invoices[inv.ID.String()] = cloneInvoice(inv)
	s.periods[key] = inv.ID.String()
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID.String()]; ok {
		return cloneInvoice(inv), nil
	}
	return nil, dues.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, societyID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.SocietyID == societyID && matchInvoice(inv, opts) {
			result = append(result, cloneInvoice(inv))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) MarkInvoicePaid(_ context.Context, invID id.InvoiceID, paidAt time.Time, paymentRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invID.String()]
	if !ok {
		return dues.ErrInvoiceNotFound
	}
	if inv.Status == invoice.StatusPaid {
		return dues.ErrInvoicePaid
	}
	inv.Status = invoice.StatusPaid
	inv.PaidAt = &paidAt
	inv.PaymentRef = paymentRef
	inv.UpdatedAt = paidAt
	return nil
}

// ==================== Notice Store ====================

func (s *Store) CreateNotice(_ context.Context, n *notice.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dues.ErrStoreClosed
	}
	if _, exists := s.notices[n.ID.String()]; exists {
		return dues.ErrAlreadyExists
	}

	year := notice.NumberYear(n.CreatedAt)
	seqKey := n.SocietyID + "|" + strconv.Itoa(year)
	s.noticeSeq[seqKey]++
	n.NoticeNumber = notice.FormatNumber(year, s.noticeSeq[seqKey])

	s.notices[n.ID.String()] = cloneNotice(n)
	return nil
}

func (s *Store) GetNotice(_ context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.notices[noticeID.String()]; ok {
		return cloneNotice(n), nil
	}
	return nil, dues.ErrNoticeNotFound
}

func (s *Store) ListNotices(_ context.Context, societyID string, opts notice.ListOpts) ([]*notice.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*notice.Notice, 0)
	for _, n := range s.notices {
		if n.SocietyID != societyID {
			continue
		}
		if opts.Status != "" && n.Status != opts.Status {
			continue
		}
		if !opts.TenantID.IsNil() && n.TenantID.String() != opts.TenantID.String() {
			continue
		}
		if !opts.InvoiceID.IsNil() && n.InvoiceID.String() != opts.InvoiceID.String() {
			continue
		}
		result = append(result, cloneNotice(n))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) TransitionNotice(_ context.Context, noticeID id.NoticeID, from, to notice.Status, at time.Time, dispatchRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notices[noticeID.String()]
	if !ok {
		return dues.ErrNoticeNotFound
	}
	if n.Status != from {
		return dues.ErrNoticeConflict
	}
	n.Status = to
	switch to {
	case notice.StatusSent:
		n.SentAt = &at
	case notice.StatusResolved:
		n.ResolvedAt = &at
	}
	if dispatchRef != "" {
		n.DispatchRef = dispatchRef
	}
	n.UpdatedAt = at
	return nil
}

func (s *Store) DeleteDraftNotice(_ context.Context, noticeID id.NoticeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notices[noticeID.String()]
	if !ok {
		return dues.ErrNoticeNotFound
	}
	if n.Status != notice.StatusDraft {
		return dues.ErrNoticeNotDraft
	}
	delete(s.notices, noticeID.String())
	return nil
}

// ==================== Core ====================

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return dues.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ==================== Helpers ====================

func periodKey(inv *invoice.Invoice) string {
	p := inv.BillingPeriod.Normalize()
	return inv.CustomerID.String() + "|" + p.String()
}

func matchInvoice(inv *invoice.Invoice, opts invoice.ListOpts) bool {
	if len(opts.Statuses) > 0 && !slices.Contains(opts.Statuses, inv.Status) {
		return false
	}
	if !opts.CustomerID.IsNil() && inv.CustomerID.String() != opts.CustomerID.String() {
		return false
	}
	if !opts.From.IsZero() && inv.BillingPeriod.From.Before(opts.From) {
		return false
	}
	if !opts.To.IsZero() && inv.BillingPeriod.To.After(opts.To) {
		return false
	}
	return true
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func cloneResident(r *resident.Resident) *resident.Resident {
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	c := *inv
	c.Items = slices.Clone(inv.Items)
	c.Metadata = maps.Clone(inv.Metadata)
	if inv.DueDate != nil {
		d := *inv.DueDate
		c.DueDate = &d
	}
	if inv.PaidAt != nil {
		p := *inv.PaidAt
		c.PaidAt = &p
	}
	return &c
}

func cloneNotice(n *notice.Notice) *notice.Notice {
	c := *n
	c.Metadata = maps.Clone(n.Metadata)
	if n.SentAt != nil {
		t := *n.SentAt
		c.SentAt = &t
	}
	if n.ResolvedAt != nil {
		t := *n.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}
