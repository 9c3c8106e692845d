// Package extension provides the Forge extension adapter for dues.
//
// It implements the forge.Extension interface to integrate the dues engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.dues" or "dues" keys.
package extension

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	dues "github.com/xraph/dues"
	"github.com/xraph/dues/api"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/store"
	"github.com/xraph/dues/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "dues"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Housing-society maintenance dues and collections engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the dues engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *dues.Engine
	server     *api.Server
	store      store.Store
	dispatcher notify.Dispatcher
	engineOpts []dues.Option
}

// New creates a new dues Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *dues.Engine { return e.engine }

// Server returns the HTTP server, or nil when the API is disabled.
func (e *Extension) Server() *api.Server { return e.server }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = dues.New(e.store, e.buildEngineOpts()...)

	if err := vessel.Provide(fapp.Container(), func() (*dues.Engine, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.config.DisableAPI {
		return nil
	}
	e.server = api.New(e.engine, api.WithBasePath(e.config.BasePath))
	return vessel.Provide(fapp.Container(), func() (*api.Server, error) {
		return e.server, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("dues: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("dues: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs dues.Option values from the resolved config.
// Pass-through options are applied last and win.
func (e *Extension) buildEngineOpts() []dues.Option {
	opts := make([]dues.Option, 0, len(e.engineOpts)+4)

	opts = append(opts,
		dues.WithSociety(e.config.SocietyID, notice.Society{
			Name:         e.config.SocietyName,
			Address:      e.config.SocietyAddress,
			Registration: e.config.SocietyRegistration,
		}),
		dues.WithCurrency(e.config.Currency),
	)

	switch {
	case e.dispatcher != nil:
		opts = append(opts, dues.WithDispatcher(e.dispatcher))
	case e.config.WebhookURL != "":
		var wopts []notify.WebhookOption
		if e.config.WebhookSecret != "" {
			wopts = append(wopts, notify.WithWebhookSecret(e.config.WebhookSecret))
		}
		opts = append(opts, dues.WithDispatcher(notify.NewWebhookDispatcher(e.config.WebhookURL, wopts...)))
	default:
		opts = append(opts, dues.WithDispatcher(notify.NewLogDispatcher(slog.Default())))
	}

	return append(opts, e.engineOpts...)
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("dues: configuration is required but not found in config files; " +
				"ensure 'extensions.dues' or 'dues' key exists in your config")
		}
		e.config = MergeWithDefaults(programmaticConfig)
	} else {
		e.config = MergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("dues: configuration loaded",
		forge.F("disable_api", e.config.DisableAPI),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("society_id", e.config.SocietyID),
		forge.F("currency", e.config.Currency),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.dues", "dues"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("dues: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("dues: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// MergeWithDefaults fills zero-valued fields with defaults.
func MergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.SocietyID == "" {
		cfg.SocietyID = defaults.SocietyID
	}
	if cfg.SocietyName == "" {
		cfg.SocietyName = defaults.SocietyName
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	return cfg
}

// MergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func MergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableAPI {
		yamlConfig.DisableAPI = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
		}
	}
	fill(&yamlConfig.BasePath, programmaticConfig.BasePath)
	fill(&yamlConfig.SocietyID, programmaticConfig.SocietyID)
	fill(&yamlConfig.SocietyName, programmaticConfig.SocietyName)
	fill(&yamlConfig.SocietyAddress, programmaticConfig.SocietyAddress)
	fill(&yamlConfig.SocietyRegistration, programmaticConfig.SocietyRegistration)
	fill(&yamlConfig.Currency, programmaticConfig.Currency)
	fill(&yamlConfig.WebhookURL, programmaticConfig.WebhookURL)
	fill(&yamlConfig.WebhookSecret, programmaticConfig.WebhookSecret)

	return MergeWithDefaults(yamlConfig)
}
