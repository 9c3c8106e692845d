// Package store defines the persistence contract of the dues engine.
// Backends live in the memory, sqlite, postgres and mongo subpackages.
package store

import (
	"context"
	"time"

	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/resident"
)

// Store is the unified storage interface for all dues entities.
// Methods are declared explicitly rather than by embedding the per-entity
// interfaces, whose method names overlap.
type Store interface {
	// Resident methods
	CreateResident(ctx context.Context, r *resident.Resident) error
	GetResident(ctx context.Context, residentID id.ResidentID) (*resident.Resident, error)
	ListResidents(ctx context.Context, societyID string, opts resident.ListOpts) ([]*resident.Resident, error)
	UpdateResident(ctx context.Context, r *resident.Resident) error

	// Invoice methods
	//
	// CreateInvoice returns dues.ErrInvoiceExists when the customer already
	// has an invoice for the same billing period.
	CreateInvoice(ctx context.Context, inv *invoice.Invoice) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, societyID string, opts invoice.ListOpts) ([]*invoice.Invoice, error)
	// MarkInvoicePaid returns dues.ErrInvoicePaid when the invoice is already paid.
	MarkInvoicePaid(ctx context.Context, invID id.InvoiceID, paidAt time.Time, paymentRef string) error

	// Notice methods
	//
	// CreateNotice assigns NoticeNumber before persisting.
	CreateNotice(ctx context.Context, n *notice.Notice) error
	GetNotice(ctx context.Context, noticeID id.NoticeID) (*notice.Notice, error)
	ListNotices(ctx context.Context, societyID string, opts notice.ListOpts) ([]*notice.Notice, error)
	// TransitionNotice is a compare-and-set on status. It returns
	// dues.ErrNoticeConflict when the notice is no longer in from.
	// at is stored as sent_at or resolved_at depending on to.
	TransitionNotice(ctx context.Context, noticeID id.NoticeID, from, to notice.Status, at time.Time, dispatchRef string) error
	// DeleteDraftNotice returns dues.ErrNoticeNotDraft for sent or resolved notices.
	DeleteDraftNotice(ctx context.Context, noticeID id.NoticeID) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
