// Package plugin provides the extension points of the dues engine.
// Plugins implement any subset of the hook interfaces below and are
// discovered by type assertion at registration time.
package plugin

import (
	"context"
	"io"

	"github.com/xraph/dues/defaulter"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/resident"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Roster hooks
// ──────────────────────────────────────────────────

type OnResidentCreated interface {
	Plugin
	OnResidentCreated(ctx context.Context, r *resident.Resident) error
}

// ──────────────────────────────────────────────────
// Invoice hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated is called for every invoice written, single or bulk.
type OnInvoiceGenerated interface {
	Plugin
	OnInvoiceGenerated(ctx context.Context, inv *invoice.Invoice) error
}

// BulkReport summarises one bulk generation run.
type BulkReport struct {
	Period  invoice.Period
	Created int
	Skipped int
	Failed  int
}

// OnBulkGenerated is called once after a bulk run, even a partial one.
type OnBulkGenerated interface {
	Plugin
	OnBulkGenerated(ctx context.Context, report BulkReport) error
}

type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error
}

// ──────────────────────────────────────────────────
// Collections hooks
// ──────────────────────────────────────────────────

type OnDefaultersAnalyzed interface {
	Plugin
	OnDefaultersAnalyzed(ctx context.Context, view *defaulter.View) error
}

type OnReminderDispatched interface {
	Plugin
	OnReminderDispatched(ctx context.Context, residentID id.ResidentID, receipt *notify.Receipt) error
}

// OnDispatchFailed is called when a transport rejects a reminder or notice.
type OnDispatchFailed interface {
	Plugin
	OnDispatchFailed(ctx context.Context, residentID id.ResidentID, channel notify.Channel, err error) error
}

// ──────────────────────────────────────────────────
// Legal notice hooks
// ──────────────────────────────────────────────────

type OnNoticeCreated interface {
	Plugin
	OnNoticeCreated(ctx context.Context, n *notice.Notice) error
}

type OnNoticeSent interface {
	Plugin
	OnNoticeSent(ctx context.Context, n *notice.Notice) error
}

type OnNoticeResolved interface {
	Plugin
	OnNoticeResolved(ctx context.Context, n *notice.Notice) error
}

type OnNoticeDeleted interface {
	Plugin
	OnNoticeDeleted(ctx context.Context, noticeID id.NoticeID) error
}

// ──────────────────────────────────────────────────
// Document formatters
// ──────────────────────────────────────────────────

// DocumentFormatter renders an *invoice.Invoice or *notice.Notice for export.
type DocumentFormatter interface {
	Plugin
	Format() string // "json", "text", ...
	Render(ctx context.Context, doc any, w io.Writer) error
}
