package extension

import (
	dues "github.com/xraph/dues"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/plugin"
	"github.com/xraph/dues/store"
)

// Option configures the dues Forge extension.
type Option func(*Extension)

// WithStore sets the store for the dues engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a dues.Option through to the underlying engine.
func WithEngineOption(opt dues.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a dues plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, dues.WithPlugin(p))
	}
}

// WithDispatcher sets the notification transport. It takes precedence over
// a configured webhook URL.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(e *Extension) { e.dispatcher = d }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableAPI skips providing the HTTP server.
func WithDisableAPI() Option {
	return func(e *Extension) { e.config.DisableAPI = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for dues routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithSociety sets the society scope and letterhead name.
func WithSociety(id, name string) Option {
	return func(e *Extension) {
		e.config.SocietyID = id
		e.config.SocietyName = name
	}
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
