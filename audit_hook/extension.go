// Package audithook bridges dues lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/dues/defaulter"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/plugin"
	"github.com/xraph/dues/resident"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnResidentCreated    = (*Extension)(nil)
	_ plugin.OnInvoiceGenerated   = (*Extension)(nil)
	_ plugin.OnBulkGenerated      = (*Extension)(nil)
	_ plugin.OnInvoicePaid        = (*Extension)(nil)
	_ plugin.OnDefaultersAnalyzed = (*Extension)(nil)
	_ plugin.OnReminderDispatched = (*Extension)(nil)
	_ plugin.OnDispatchFailed     = (*Extension)(nil)
	_ plugin.OnNoticeCreated      = (*Extension)(nil)
	_ plugin.OnNoticeSent         = (*Extension)(nil)
	_ plugin.OnNoticeResolved     = (*Extension)(nil)
	_ plugin.OnNoticeDeleted      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges dues lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Roster hooks
// ──────────────────────────────────────────────────

// OnResidentCreated implements plugin.OnResidentCreated.
func (e *Extension) OnResidentCreated(ctx context.Context, r *resident.Resident) error {
	return e.record(ctx, ActionResidentCreated, SeverityInfo, OutcomeSuccess,
		ResourceResident, r.ID.String(), CategoryRoster, nil,
		"flat", r.Flat,
		"society_id", r.SocietyID,
	)
}

// ──────────────────────────────────────────────────
// Invoice hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (e *Extension) OnInvoiceGenerated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceGenerated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategoryBilling, nil,
		"customer_id", inv.CustomerID.String(),
		"period", inv.BillingPeriod.String(),
		"total", inv.TotalAmount.String(),
		"old_arrears", inv.OldArrears.String(),
	)
}

// OnBulkGenerated implements plugin.OnBulkGenerated. A run with failures is
// recorded as a partial outcome.
func (e *Extension) OnBulkGenerated(ctx context.Context, report plugin.BulkReport) error {
	outcome, severity := OutcomeSuccess, SeverityInfo
	if report.Failed > 0 {
		outcome, severity = OutcomePartial, SeverityWarning
	}
	return e.record(ctx, ActionBulkGenerated, severity, outcome,
		ResourceInvoice, "", CategoryBilling, nil,
		"period", report.Period.String(),
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (e *Extension) OnInvoicePaid(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoicePaid, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.ID.String(), CategoryPayment, nil,
		"customer_id", inv.CustomerID.String(),
		"amount", inv.TotalAmount.String(),
		"payment_ref", inv.PaymentRef,
	)
}

// ──────────────────────────────────────────────────
// Collections hooks
// ──────────────────────────────────────────────────

// OnDefaultersAnalyzed implements plugin.OnDefaultersAnalyzed.
func (e *Extension) OnDefaultersAnalyzed(ctx context.Context, view *defaulter.View) error {
	return e.record(ctx, ActionDefaultersAnalyzed, SeverityInfo, OutcomeSuccess,
		ResourceDefaulter, "", CategoryCollections, nil,
		"total", view.Stats.Total,
		"chronic", view.Stats.Chronic,
		"revenue_at_risk", view.Stats.RevenueAtRisk.String(),
	)
}

// OnReminderDispatched implements plugin.OnReminderDispatched.
func (e *Extension) OnReminderDispatched(ctx context.Context, residentID id.ResidentID, receipt *notify.Receipt) error {
	return e.record(ctx, ActionReminderSent, SeverityInfo, OutcomeSuccess,
		ResourceReminder, receipt.Ref, CategoryCollections, nil,
		"resident_id", residentID.String(),
		"channel", string(receipt.Channel),
	)
}

// OnDispatchFailed implements plugin.OnDispatchFailed.
func (e *Extension) OnDispatchFailed(ctx context.Context, residentID id.ResidentID, channel notify.Channel, err error) error {
	return e.record(ctx, ActionDispatchFailed, SeverityError, OutcomeFailure,
		ResourceResident, residentID.String(), CategoryCollections, err,
		"channel", string(channel),
	)
}

// ──────────────────────────────────────────────────
// Legal notice hooks
// ──────────────────────────────────────────────────

// OnNoticeCreated implements plugin.OnNoticeCreated.
func (e *Extension) OnNoticeCreated(ctx context.Context, n *notice.Notice) error {
	return e.record(ctx, ActionNoticeCreated, SeverityInfo, OutcomeSuccess,
		ResourceNotice, n.ID.String(), CategoryLegal, nil,
		"notice_number", n.NoticeNumber,
		"tenant_id", n.TenantID.String(),
	)
}

// OnNoticeSent implements plugin.OnNoticeSent. Serving a notice is a legal
// step, so it is recorded as a warning.
func (e *Extension) OnNoticeSent(ctx context.Context, n *notice.Notice) error {
	return e.record(ctx, ActionNoticeSent, SeverityWarning, OutcomeSuccess,
		ResourceNotice, n.ID.String(), CategoryLegal, nil,
		"notice_number", n.NoticeNumber,
		"tenant_id", n.TenantID.String(),
		"dispatch_ref", n.DispatchRef,
	)
}

// OnNoticeResolved implements plugin.OnNoticeResolved.
func (e *Extension) OnNoticeResolved(ctx context.Context, n *notice.Notice) error {
	return e.record(ctx, ActionNoticeResolved, SeverityInfo, OutcomeSuccess,
		ResourceNotice, n.ID.String(), CategoryLegal, nil,
		"notice_number", n.NoticeNumber,
	)
}

// OnNoticeDeleted implements plugin.OnNoticeDeleted.
func (e *Extension) OnNoticeDeleted(ctx context.Context, noticeID id.NoticeID) error {
	return e.record(ctx, ActionNoticeDeleted, SeverityInfo, OutcomeSuccess,
		ResourceNotice, noticeID.String(), CategoryLegal, nil,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
