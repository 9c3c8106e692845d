package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/xraph/dues/defaulter"
	"github.com/xraph/dues/id"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/resident"
)

// DefaultHookTimeout bounds each hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are cached per interface at registration time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit               []OnInit
	onShutdown           []OnShutdown
	onResidentCreated    []OnResidentCreated
	onInvoiceGenerated   []OnInvoiceGenerated
	onBulkGenerated      []OnBulkGenerated
	onInvoicePaid        []OnInvoicePaid
	onDefaultersAnalyzed []OnDefaultersAnalyzed
	onReminderDispatched []OnReminderDispatched
	onDispatchFailed     []OnDispatchFailed
	onNoticeCreated      []OnNoticeCreated
	onNoticeSent         []OnNoticeSent
	onNoticeResolved     []OnNoticeResolved
	onNoticeDeleted      []OnNoticeDeleted
	formatters           map[string]DocumentFormatter
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:     slog.Default(),
		timeout:    DefaultHookTimeout,
		formatters: make(map[string]DocumentFormatter),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout overrides the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}
	if f, ok := p.(DocumentFormatter); ok {
		if _, dup := r.formatters[f.Format()]; dup {
			return fmt.Errorf("plugin: duplicate formatter for %q: %s", f.Format(), p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnResidentCreated); ok {
		r.onResidentCreated = append(r.onResidentCreated, v)
		hooks = append(hooks, "OnResidentCreated")
	}
	if v, ok := p.(OnInvoiceGenerated); ok {
		r.onInvoiceGenerated = append(r.onInvoiceGenerated, v)
		hooks = append(hooks, "OnInvoiceGenerated")
	}
	if v, ok := p.(OnBulkGenerated); ok {
		r.onBulkGenerated = append(r.onBulkGenerated, v)
		hooks = append(hooks, "OnBulkGenerated")
	}
	if v, ok := p.(OnInvoicePaid); ok {
		r.onInvoicePaid = append(r.onInvoicePaid, v)
		hooks = append(hooks, "OnInvoicePaid")
	}
	if v, ok := p.(OnDefaultersAnalyzed); ok {
		r.onDefaultersAnalyzed = append(r.onDefaultersAnalyzed, v)
		hooks = append(hooks, "OnDefaultersAnalyzed")
	}
	if v, ok := p.(OnReminderDispatched); ok {
		r.onReminderDispatched = append(r.onReminderDispatched, v)
		hooks = append(hooks, "OnReminderDispatched")
	}
	if v, ok := p.(OnDispatchFailed); ok {
		r.onDispatchFailed = append(r.onDispatchFailed, v)
		hooks = append(hooks, "OnDispatchFailed")
	}
	if v, ok := p.(OnNoticeCreated); ok {
		r.onNoticeCreated = append(r.onNoticeCreated, v)
		hooks = append(hooks, "OnNoticeCreated")
	}
	if v, ok := p.(OnNoticeSent); ok {
		r.onNoticeSent = append(r.onNoticeSent, v)
		hooks = append(hooks, "OnNoticeSent")
	}
	if v, ok := p.(OnNoticeResolved); ok {
		r.onNoticeResolved = append(r.onNoticeResolved, v)
		hooks = append(hooks, "OnNoticeResolved")
	}
	if v, ok := p.(OnNoticeDeleted); ok {
		r.onNoticeDeleted = append(r.onNoticeDeleted, v)
		hooks = append(hooks, "OnNoticeDeleted")
	}
	if v, ok := p.(DocumentFormatter); ok {
		r.formatters[v.Format()] = v
		hooks = append(hooks, "DocumentFormatter")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Formatter returns the formatter registered for format, or nil.
func (r *Registry) Formatter(format string) DocumentFormatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formatters[format]
}

// Formats lists the registered export formats in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every plugin in hooks. Failures and timeouts are logged
// and never reach the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// hooksOf reads a cached hook list under the read lock.
func hooksOf[T any](r *Registry, list *[]T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", hooksOf(r, &r.onInit), func(p OnInit) error { return p.OnInit(ctx, engine) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", hooksOf(r, &r.onShutdown), func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

func (r *Registry) EmitResidentCreated(ctx context.Context, res *resident.Resident) {
	emit(ctx, r, "OnResidentCreated", hooksOf(r, &r.onResidentCreated), func(p OnResidentCreated) error { return p.OnResidentCreated(ctx, res) })
}

func (r *Registry) EmitInvoiceGenerated(ctx context.Context, inv *invoice.Invoice) {
	emit(ctx, r, "OnInvoiceGenerated", hooksOf(r, &r.onInvoiceGenerated), func(p OnInvoiceGenerated) error { return p.OnInvoiceGenerated(ctx, inv) })
}

func (r *Registry) EmitBulkGenerated(ctx context.Context, report BulkReport) {
	emit(ctx, r, "OnBulkGenerated", hooksOf(r, &r.onBulkGenerated), func(p OnBulkGenerated) error { return p.OnBulkGenerated(ctx, report) })
}

func (r *Registry) EmitInvoicePaid(ctx context.Context, inv *invoice.Invoice) {
	emit(ctx, r, "OnInvoicePaid", hooksOf(r, &r.onInvoicePaid), func(p OnInvoicePaid) error { return p.OnInvoicePaid(ctx, inv) })
}

func (r *Registry) EmitDefaultersAnalyzed(ctx context.Context, view *defaulter.View) {
	emit(ctx, r, "OnDefaultersAnalyzed", hooksOf(r, &r.onDefaultersAnalyzed), func(p OnDefaultersAnalyzed) error { return p.OnDefaultersAnalyzed(ctx, view) })
}

func (r *Registry) EmitReminderDispatched(ctx context.Context, residentID id.ResidentID, receipt *notify.Receipt) {
	emit(ctx, r, "OnReminderDispatched", hooksOf(r, &r.onReminderDispatched), func(p OnReminderDispatched) error {
		return p.OnReminderDispatched(ctx, residentID, receipt)
	})
}

func (r *Registry) EmitDispatchFailed(ctx context.Context, residentID id.ResidentID, channel notify.Channel, cause error) {
	emit(ctx, r, "OnDispatchFailed", hooksOf(r, &r.onDispatchFailed), func(p OnDispatchFailed) error {
		return p.OnDispatchFailed(ctx, residentID, channel, cause)
	})
}

func (r *Registry) EmitNoticeCreated(ctx context.Context, n *notice.Notice) {
	emit(ctx, r, "OnNoticeCreated", hooksOf(r, &r.onNoticeCreated), func(p OnNoticeCreated) error { return p.OnNoticeCreated(ctx, n) })
}

func (r *Registry) EmitNoticeSent(ctx context.Context, n *notice.Notice) {
	emit(ctx, r, "OnNoticeSent", hooksOf(r, &r.onNoticeSent), func(p OnNoticeSent) error { return p.OnNoticeSent(ctx, n) })
}

func (r *Registry) EmitNoticeResolved(ctx context.Context, n *notice.Notice) {
	emit(ctx, r, "OnNoticeResolved", hooksOf(r, &r.onNoticeResolved), func(p OnNoticeResolved) error { return p.OnNoticeResolved(ctx, n) })
}

func (r *Registry) EmitNoticeDeleted(ctx context.Context, noticeID id.NoticeID) {
	emit(ctx, r, "OnNoticeDeleted", hooksOf(r, &r.onNoticeDeleted), func(p OnNoticeDeleted) error { return p.OnNoticeDeleted(ctx, noticeID) })
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the collections pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
