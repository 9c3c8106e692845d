package dues

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/dues/export"
	"github.com/xraph/dues/invoice"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/plugin"
	"github.com/xraph/dues/store"
	"github.com/xraph/dues/types"
)

// DefaultSocietyID is used when no society is configured.
const DefaultSocietyID = "default"

// Engine is the collections engine of one housing society. It generates
// invoices, derives the defaulter register and runs legal escalation against
// a store.Store.
type Engine struct {
	store      store.Store
	plugins    *plugin.Registry
	logger     *slog.Logger
	dispatcher notify.Dispatcher

	societyID string
	society   notice.Society
	currency  string
	clock     func() time.Time
}

// New creates an Engine. The json and text export formats are always available.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		societyID: DefaultSocietyID,
		society:   notice.Society{Name: "Housing Society"},
		currency:  types.DefaultCurrency,
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	for _, f := range []plugin.DocumentFormatter{export.JSON{}, export.Text{}} {
		if e.plugins.Formatter(f.Format()) == nil {
			_ = e.plugins.Register(f) //nolint:errcheck // built-ins only fill unclaimed formats
		}
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if err := e.plugins.Register(p); err != nil {
			e.logger.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithFormatter registers an export format. It takes precedence over the
// built-in formatter of the same name.
func WithFormatter(f plugin.DocumentFormatter) Option {
	return WithPlugin(f)
}

// WithDispatcher sets the transport used for reminders and legal notices.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithSociety scopes the engine to one society and sets the identity printed
// on demand letters.
func WithSociety(societyID string, s notice.Society) Option {
	return func(e *Engine) {
		e.societyID = societyID
		e.society = s
	}
}

// WithCurrency sets the billing currency.
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		e.currency = types.Zero(currency).Currency
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// Start migrates the store and initialises plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("dues engine started",
		"society_id", e.societyID,
		"currency", e.currency,
		"tax_rate", invoice.DefaultTaxRate.String(),
		"plugins", e.plugins.Count(),
	)
	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

func (e *Engine) SocietyID() string       { return e.societyID }
func (e *Engine) Society() notice.Society { return e.society }
func (e *Engine) Currency() string        { return e.currency }

// Ping checks the store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}
