package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("dues/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("dues/postgres: %w: %w", dues.ErrMigrationFailed, err)
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
	_, err := s.pg.NewInsert(toResidentModel(r)).Exec(ctx)
	return err
}

func (s *Store) GetResident(ctx context.Context, residentID id.ResidentID) (*resident.Resident, error) {
	m := new(residentModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", residentID.String()).
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
	q := s.pg.NewSelect(&models).Where("society_id = $1", societyID)

	argIdx := 1
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
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
	res, err := s.pg.NewInsert(toInvoiceModel(inv)).
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
	err := s.pg.NewSelect(m).
		Where("id = $1", invID.String()).
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
	q := s.pg.NewSelect(&models).Where("society_id = $1", societyID)

	argIdx := 1
	if len(opts.Statuses) > 0 {
		args := make([]any, len(opts.Statuses))
		for i, st := range opts.Statuses {
			args[i] = string(st)
		}
		q = q.Where("status IN ("+placeholders(argIdx+1, len(args))+")", args...)
		argIdx += len(args)
	}
	if !opts.CustomerID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("customer_id = $%d", argIdx), opts.CustomerID.String())
	}
	if !opts.From.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("period_from >= $%d", argIdx), opts.From)
	}
	if !opts.To.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("period_to <= $%d", argIdx), opts.To)
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
	res, err := s.pg.NewUpdate((*invoiceModel)(nil)).
		Set("status = $1", string(invoice.StatusPaid)).
		Set("paid_at = $2", paidAt).
		Set("payment_ref = $3", paymentRef).
		Set("updated_at = $4", paidAt).
		Where("id = $5", invID.String()).
		Where("status IN ($6, $7)", string(invoice.StatusPending), string(invoice.StatusOverdue)).
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
	err := s.pg.NewRaw(`
		INSERT INTO dues_counters (society_id, year, seq) VALUES ($1, $2, 1)
		ON CONFLICT (society_id, year) DO UPDATE SET seq = dues_counters.seq + 1
		RETURNING seq
	`, n.SocietyID, year).Scan(ctx, &seq)
	if err != nil {
		return fmt.Errorf("dues/postgres: assign notice number: %w", err)
	}

	m := toNoticeModel(n)
	m.NoticeYear = year
	m.NoticeSeq = seq
	m.NoticeNumber = notice.FormatNumber(year, seq)

	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	n.NoticeNumber = m.NoticeNumber
	return nil
}

func (s *Store) GetNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	m := new(noticeModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", noticeID.String()).
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
	q := s.pg.NewSelect(&models).Where("society_id = $1", societyID)

	argIdx := 1
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if !opts.TenantID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("tenant_id = $%d", argIdx), opts.TenantID.String())
	}
	if !opts.InvoiceID.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("invoice_id = $%d", argIdx), opts.InvoiceID.String())
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
	q := s.pg.NewUpdate((*noticeModel)(nil)).
		Set("status = $1", string(to)).
		Set("updated_at = $2", at)

	argIdx := 2
	switch to {
	case notice.StatusSent:
		argIdx++
		q = q.Set(fmt.Sprintf("sent_at = $%d", argIdx), at)
	case notice.StatusResolved:
		argIdx++
		q = q.Set(fmt.Sprintf("resolved_at = $%d", argIdx), at)
	}
	if dispatchRef != "" {
		argIdx++
		q = q.Set(fmt.Sprintf("dispatch_ref = $%d", argIdx), dispatchRef)
	}
	q = q.Where(fmt.Sprintf("id = $%d", argIdx+1), noticeID.String()).
		Where(fmt.Sprintf("status = $%d", argIdx+2), string(from))

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
	res, err := s.pg.NewDelete((*noticeModel)(nil)).
		Where("id = $1", noticeID.String()).
		Where("status = $2", string(notice.StatusDraft)).
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

// placeholders renders n positional parameters starting at $start.
func placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
