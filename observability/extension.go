// Package observability provides a metrics extension for dues that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/dues/defaulter"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/plugin"
	"github.com/xraph/dues/resident"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnResidentCreated    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceGenerated   = (*MetricsExtension)(nil)
	_ plugin.OnBulkGenerated      = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid        = (*MetricsExtension)(nil)
	_ plugin.OnDefaultersAnalyzed = (*MetricsExtension)(nil)
	_ plugin.OnReminderDispatched = (*MetricsExtension)(nil)
	_ plugin.OnDispatchFailed     = (*MetricsExtension)(nil)
	_ plugin.OnNoticeCreated      = (*MetricsExtension)(nil)
	_ plugin.OnNoticeSent         = (*MetricsExtension)(nil)
	_ plugin.OnNoticeResolved     = (*MetricsExtension)(nil)
	_ plugin.OnNoticeDeleted      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// Gauge interface for metric gauges.
type Gauge interface {
	Set(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
	Gauge(name string) Gauge
}

// MetricsExtension records collections lifecycle metrics.
// Register it as a dues plugin to track them automatically.
type MetricsExtension struct {
	// Roster metrics
	ResidentCreated Counter

	// Invoice metrics
	InvoiceGenerated Counter
	InvoicePaid      Counter
	InvoiceTotal     Histogram // major units
	BulkRuns         Counter
	BulkSkipped      Counter
	BulkFailed       Counter

	// Collections metrics
	Defaulters       Gauge
	ChronicDefaulter Gauge
	RevenueAtRisk    Gauge // major units
	RemindersSent    Counter
	DispatchFailures Counter

	// Legal notice metrics
	NoticeCreated  Counter
	NoticeSent     Counter
	NoticeResolved Counter
	NoticeDeleted  Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		ResidentCreated: factory.Counter("dues.resident.created"),

		InvoiceGenerated: factory.Counter("dues.invoice.generated"),
		InvoicePaid:      factory.Counter("dues.invoice.paid"),
		InvoiceTotal:     factory.Histogram("dues.invoice.total_amount"),
		BulkRuns:         factory.Counter("dues.invoice.bulk.runs"),
		BulkSkipped:      factory.Counter("dues.invoice.bulk.skipped"),
		BulkFailed:       factory.Counter("dues.invoice.bulk.failed"),

		Defaulters:       factory.Gauge("dues.defaulters.total"),
		ChronicDefaulter: factory.Gauge("dues.defaulters.chronic"),
		RevenueAtRisk:    factory.Gauge("dues.defaulters.revenue_at_risk"),
		RemindersSent:    factory.Counter("dues.reminder.sent"),
		DispatchFailures: factory.Counter("dues.dispatch.failures"),

		NoticeCreated:  factory.Counter("dues.notice.created"),
		NoticeSent:     factory.Counter("dues.notice.sent"),
		NoticeResolved: factory.Counter("dues.notice.resolved"),
		NoticeDeleted:  factory.Counter("dues.notice.deleted"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnResidentCreated implements plugin.OnResidentCreated.
func (m *MetricsExtension) OnResidentCreated(_ context.Context, _ *resident.Resident) error {
	m.ResidentCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (m *MetricsExtension) OnInvoiceGenerated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceGenerated.Inc()
	m.InvoiceTotal.Observe(inv.TotalAmount.Decimal().InexactFloat64())
	return nil
}

// OnBulkGenerated implements plugin.OnBulkGenerated.
func (m *MetricsExtension) OnBulkGenerated(_ context.Context, report plugin.BulkReport) error {
	m.BulkRuns.Inc()
	m.BulkSkipped.Add(float64(report.Skipped))
	m.BulkFailed.Add(float64(report.Failed))
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ *invoice.Invoice) error {
	m.InvoicePaid.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Collections hooks
// ──────────────────────────────────────────────────

// OnDefaultersAnalyzed implements plugin.OnDefaultersAnalyzed.
func (m *MetricsExtension) OnDefaultersAnalyzed(_ context.Context, view *defaulter.View) error {
	m.Defaulters.Set(float64(view.Stats.Total))
	m.ChronicDefaulter.Set(float64(view.Stats.Chronic))
	m.RevenueAtRisk.Set(view.Stats.RevenueAtRisk.Decimal().InexactFloat64())
	return nil
}

// OnReminderDispatched implements plugin.OnReminderDispatched.
func (m *MetricsExtension) OnReminderDispatched(_ context.Context, _ id.ResidentID, _ *notify.Receipt) error {
	m.RemindersSent.Inc()
	return nil
}

// OnDispatchFailed implements plugin.OnDispatchFailed.
func (m *MetricsExtension) OnDispatchFailed(_ context.Context, _ id.ResidentID, _ notify.Channel, _ error) error {
	m.DispatchFailures.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Legal notice hooks
// ──────────────────────────────────────────────────

// OnNoticeCreated implements plugin.OnNoticeCreated.
func (m *MetricsExtension) OnNoticeCreated(_ context.Context, _ *notice.Notice) error {
	m.NoticeCreated.Inc()
	return nil
}

// OnNoticeSent implements plugin.OnNoticeSent.
func (m *MetricsExtension) OnNoticeSent(_ context.Context, _ *notice.Notice) error {
	m.NoticeSent.Inc()
	return nil
}

// OnNoticeResolved implements plugin.OnNoticeResolved.
func (m *MetricsExtension) OnNoticeResolved(_ context.Context, _ *notice.Notice) error {
	m.NoticeResolved.Inc()
	return nil
}

// OnNoticeDeleted implements plugin.OnNoticeDeleted.
func (m *MetricsExtension) OnNoticeDeleted(_ context.Context, _ id.NoticeID) error {
	m.NoticeDeleted.Inc()
	return nil
}
