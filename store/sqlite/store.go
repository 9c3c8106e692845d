package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/resident"
	duesstore "github.com/xraph/dues/store"
)

// compile-time interface check
var _ duesstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("dues/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("dues/sqlite: %w: %w", dues.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Resident Store ====================

func (s *Store) CreateResident(ctx context.Context, r *resident.Resident) error {
	_, err := s.sdb.NewInsert(toResidentModel(r)).Exec(ctx)
	return err
}

func (s *Store) GetResident(ctx context.Context, residentID id.ResidentID) (*resident.Resident, error) {
	m := new(residentModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", residentID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dues.ErrResidentNotFound
		}
		return nil, err
	}
	return fromResidentModel(m)
}

func (s *Store) ListResidents(ctx context.Context, societyID string, opts resident.ListOpts) ([]*resident.Resident, error) {
	var models []residentModel
	q := s.sdb.NewSelect(&models).Where("society_id = ?", societyID)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*resident.Resident, len(models))
	for i := range models {
		r, err := fromResidentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) UpdateResident(ctx context.Context, r *resident.Resident) error {
	m := toResidentModel(r)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return dues.ErrResidentNotFound
	}
	return nil
}

// ==================== Invoice Store ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	res, err := s.sdb.NewInsert(toInvoiceModel(inv)).
		OnConflict("(customer_id, period_from, period_to) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return dues.ErrInvoiceExists
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", invID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dues.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, societyID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.sdb.NewSelect(&models).Where("society_id = ?", societyID)

	if len(opts.Statuses) > 0 {
		args := make([]any, len(opts.Statuses))
		for i, st := range opts.Statuses {
			args[i] = string(st)
		}
		q = q.Where("status IN ("+placeholders(len(args))+")", args...)
	}
	if !opts.CustomerID.IsNil() {
		q = q.Where("customer_id = ?", opts.CustomerID.String())
	}
	if !opts.From.IsZero() {
		q = q.Where("period_from >= ?", opts.From.UTC())
	}
	if !opts.To.IsZero() {
		q = q.Where("period_to <= ?", opts.To.UTC())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = inv
	}
	return result, nil
}

func (s *Store) MarkInvoicePaid(ctx context.Context, invID id.InvoiceID, paidAt time.Time, paymentRef string) error {
	res, err := s.sdb.NewUpdate((*invoiceModel)(nil)).
		Set("status = ?", string(invoice.StatusPaid)).
		Set("paid_at = ?", paidAt).
		Set("payment_ref = ?", paymentRef).
		Set("updated_at = ?", paidAt).
		Where("id = ?", invID.String()).
		Where("status IN (?, ?)", string(invoice.StatusPending), string(invoice.StatusOverdue)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetInvoice(ctx, invID); err != nil {
			return err
		}
		return dues.ErrInvoicePaid
	}
	return nil
}

// ==================== Notice Store ====================

// CreateNotice takes the next sequence for the notice's society and year
// from dues_counters. Sequences are never handed out twice, even after a
// draft is deleted.
func (s *Store) CreateNotice(ctx context.Context, n *notice.Notice) error {
	year := notice.NumberYear(n.CreatedAt)

	var seq int
	err := s.sdb.NewRaw(`
		INSERT INTO dues_counters (society_id, year, seq) VALUES (?, ?, 1)
		ON CONFLICT (society_id, year) DO UPDATE SET seq = dues_counters.seq + 1
		RETURNING seq
	`, n.SocietyID, year).Scan(ctx, &seq)
	if err != nil {
		return fmt.Errorf("dues/sqlite: assign notice number: %w", err)
	}

	m := toNoticeModel(n)
	m.NoticeYear = year
	m.NoticeSeq = seq
	m.NoticeNumber = notice.FormatNumber(year, seq)

	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	n.NoticeNumber = m.NoticeNumber
	return nil
}

func (s *Store) GetNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	m := new(noticeModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", noticeID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, dues.ErrNoticeNotFound
		}
		return nil, err
	}
	return fromNoticeModel(m)
}

func (s *Store) ListNotices(ctx context.Context, societyID string, opts notice.ListOpts) ([]*notice.Notice, error) {
	var models []noticeModel
	q := s.sdb.NewSelect(&models).Where("society_id = ?", societyID)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if !opts.TenantID.IsNil() {
		q = q.Where("tenant_id = ?", opts.TenantID.String())
	}
	if !opts.InvoiceID.IsNil() {
		q = q.Where("invoice_id = ?", opts.InvoiceID.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*notice.Notice, len(models))
	for i := range models {
		n, err := fromNoticeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = n
	}
	return result, nil
}

func (s *Store) TransitionNotice(ctx context.Context, noticeID id.NoticeID, from, to notice.Status, at time.Time, dispatchRef string) error {
	q := s.sdb.NewUpdate((*noticeModel)(nil)).
		Set("status = ?", string(to)).
		Set("updated_at = ?", at)

	switch to {
	case notice.StatusSent:
		q = q.Set("sent_at = ?", at)
	case notice.StatusResolved:
		q = q.Set("resolved_at = ?", at)
	}
	if dispatchRef != "" {
		q = q.Set("dispatch_ref = ?", dispatchRef)
	}
	q = q.Where("id = ?", noticeID.String()).
		Where("status = ?", string(from))

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetNotice(ctx, noticeID); err != nil {
			return err
		}
		return dues.ErrNoticeConflict
	}
	return nil
}

func (s *Store) DeleteDraftNotice(ctx context.Context, noticeID id.NoticeID) error {
	res, err := s.sdb.NewDelete((*noticeModel)(nil)).
		Where("id = ?", noticeID.String()).
		Where("status = ?", string(notice.StatusDraft)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.GetNotice(ctx, noticeID); err != nil {
			return err
		}
		return dues.ErrNoticeNotDraft
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// placeholders renders n bind parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
