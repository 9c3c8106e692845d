package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/resident"
	duesstore "github.com/xraph/dues/store"
)

// Collection name constants.
const (
	colResidents = "dues_residents"
	colInvoices  = "dues_invoices"
	colNotices   = "dues_notices"
	colCounters  = "dues_counters"
)

// compile-time interface check
var _ duesstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all dues collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("dues/mongo: migrate %s indexes: %w: %w", col, dues.ErrMigrationFailed, err)
		}
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
	_, err := s.mdb.NewInsert(toResidentModel(r)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dues.ErrAlreadyExists
		}
		return fmt.Errorf("dues/mongo: create resident: %w", err)
	}
	return nil
}

func (s *Store) GetResident(ctx context.Context, residentID id.ResidentID) (*resident.Resident, error) {
	var m residentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": residentID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dues.ErrResidentNotFound
		}
		return nil, fmt.Errorf("dues/mongo: get resident: %w", err)
	}
	return fromResidentModel(&m)
}

func (s *Store) ListResidents(ctx context.Context, societyID string, opts resident.ListOpts) ([]*resident.Resident, error) {
	var models []residentModel

	filter := bson.M{"society_id": societyID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("dues/mongo: list residents: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("dues/mongo: update resident: %w", err)
	}
	if res.MatchedCount() == 0 {
		return dues.ErrResidentNotFound
	}
	return nil
}

// ==================== Invoice Store ====================

// CreateInvoice relies on the unique (customer_id, period_from, period_to)
// index for duplicate suppression.
func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.mdb.NewInsert(toInvoiceModel(inv)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dues.ErrInvoiceExists
		}
		return fmt.Errorf("dues/mongo: create invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": invID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dues.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("dues/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, societyID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel

	filter := bson.M{"society_id": societyID}
	if len(opts.Statuses) > 0 {
		statuses := make([]string, len(opts.Statuses))
		for i, st := range opts.Statuses {
			statuses[i] = string(st)
		}
		filter["status"] = bson.M{"$in": statuses}
	}
	if !opts.CustomerID.IsNil() {
		filter["customer_id"] = opts.CustomerID.String()
	}
	if !opts.From.IsZero() {
		filter["period_from"] = bson.M{"$gte": opts.From}
	}
	if !opts.To.IsZero() {
		filter["period_to"] = bson.M{"$lte": opts.To}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("dues/mongo: list invoices: %w", err)
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
	res, err := s.mdb.NewUpdate((*invoiceModel)(nil)).
		Filter(bson.M{
			"_id":    invID.String(),
			"status": bson.M{"$in": []string{string(invoice.StatusPending), string(invoice.StatusOverdue)}},
		}).
		Set("status", string(invoice.StatusPaid)).
		Set("paid_at", paidAt).
		Set("payment_ref", paymentRef).
		Set("updated_at", paidAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("dues/mongo: mark invoice paid: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.GetInvoice(ctx, invID); err != nil {
			return err
		}
		return dues.ErrInvoicePaid
	}
	return nil
}

// ==================== Notice Store ====================

// CreateNotice draws the next number from an atomically incremented counter
// document per society and year.
func (s *Store) CreateNotice(ctx context.Context, n *notice.Notice) error {
	year := notice.NumberYear(n.CreatedAt)

	var counter counterModel
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": "notice|" + n.SocietyID + "|" + strconv.Itoa(year)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return fmt.Errorf("dues/mongo: next notice number: %w", err)
	}

	m := toNoticeModel(n)
	m.NoticeNumber = notice.FormatNumber(year, counter.Seq)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dues.ErrAlreadyExists
		}
		return fmt.Errorf("dues/mongo: create notice: %w", err)
	}
	n.NoticeNumber = m.NoticeNumber
	return nil
}

func (s *Store) GetNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error) {
	var m noticeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": noticeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dues.ErrNoticeNotFound
		}
		return nil, fmt.Errorf("dues/mongo: get notice: %w", err)
	}
	return fromNoticeModel(&m)
}

func (s *Store) ListNotices(ctx context.Context, societyID string, opts notice.ListOpts) ([]*notice.Notice, error) {
	var models []noticeModel

	filter := bson.M{"society_id": societyID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if !opts.TenantID.IsNil() {
		filter["tenant_id"] = opts.TenantID.String()
	}
	if !opts.InvoiceID.IsNil() {
		filter["invoice_id"] = opts.InvoiceID.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("dues/mongo: list notices: %w", err)
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
	update := s.mdb.NewUpdate((*noticeModel)(nil)).
		Filter(bson.M{"_id": noticeID.String(), "status": string(from)}).
		Set("status", string(to)).
		Set("updated_at", at)

	switch to {
	case notice.StatusSent:
		update = update.Set("sent_at", at)
	case notice.StatusResolved:
		update = update.Set("resolved_at", at)
	}
	if dispatchRef != "" {
		update = update.Set("dispatch_ref", dispatchRef)
	}

	res, err := update.Exec(ctx)
	if err != nil {
		return fmt.Errorf("dues/mongo: transition notice: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.GetNotice(ctx, noticeID); err != nil {
			return err
		}
		return dues.ErrNoticeConflict
	}
	return nil
}

func (s *Store) DeleteDraftNotice(ctx context.Context, noticeID id.NoticeID) error {
	res, err := s.mdb.NewDelete((*noticeModel)(nil)).
		Filter(bson.M{"_id": noticeID.String(), "status": string(notice.StatusDraft)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("dues/mongo: delete notice: %w", err)
	}
	if res.DeletedCount() == 0 {
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all dues collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colResidents: {
			{Keys: bson.D{{Key: "society_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "society_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colInvoices: {
			{
				Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "period_from", Value: 1}, {Key: "period_to", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "society_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "society_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colNotices: {
			{
				Keys:    bson.D{{Key: "society_id", Value: 1}, {Key: "notice_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "society_id", Value: 1}, {Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "society_id", Value: 1}, {Key: "status", Value: 1}}},
		},
	}
}
