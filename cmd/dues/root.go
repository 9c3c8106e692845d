package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"

	dues "github.com/xraph/dues"
	audithook "github.com/xraph/dues/audit_hook"
	"github.com/xraph/dues/internal/config"
	"github.com/xraph/dues/internal/logger"
	"github.com/xraph/dues/notice"
	"github.com/xraph/dues/notify"
	"github.com/xraph/dues/store"
	"github.com/xraph/dues/store/memory"
	mongostore "github.com/xraph/dues/store/mongo"
	pgstore "github.com/xraph/dues/store/postgres"
	sqlitestore "github.com/xraph/dues/store/sqlite"
)

var version = "0.1.0"

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "dues",
		Short:         "Housing-society maintenance dues and collections engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(cfg),
		newMigrateCmd(cfg),
		newBillCmd(cfg),
		newAnalyzeCmd(cfg),
		newLetterCmd(cfg),
	)
	return root
}

// openStore connects the backend named by DUES_STORE.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		drv := sqlitedriver.New()
		if err := drv.Open(ctx, cfg.StoreDSN); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlitestore.New(db), nil
	case config.StorePostgres:
		drv := pgdriver.New()
		if err := drv.Open(ctx, cfg.StoreDSN); err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return pgstore.New(db), nil
	case config.StoreMongo:
		drv := mongodriver.New()
		if err := drv.Open(ctx, cfg.StoreDSN); err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		db, err := grove.Open(drv)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		return mongostore.New(db), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newEngine opens the store and builds a started engine with the audit
// hook and the configured dispatcher. extra options are applied last.
func newEngine(ctx context.Context, cfg *config.Config, extra ...dues.Option) (*dues.Engine, error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []dues.Option{
		dues.WithLogger(logger.Slog("engine")),
		dues.WithSociety(cfg.SocietyID, notice.Society{
			Name:         cfg.SocietyName,
			Address:      cfg.SocietyAddress,
			Registration: cfg.SocietyRegistration,
		}),
		dues.WithCurrency(cfg.Currency),
		dues.WithDispatcher(newDispatcher(cfg)),
		dues.WithPlugin(audithook.New(auditLog(), audithook.WithLogger(logger.Slog("audit")))),
	}
	e := dues.New(s, append(opts, extra...)...)
	if err := e.Start(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return e, nil
}

func newDispatcher(cfg *config.Config) notify.Dispatcher {
	if cfg.WebhookURL == "" {
		return notify.NewLogDispatcher(logger.Slog("notify"))
	}
	var opts []notify.WebhookOption
	if cfg.WebhookSecret != "" {
		opts = append(opts, notify.WithWebhookSecret(cfg.WebhookSecret))
	}
	return notify.NewWebhookDispatcher(cfg.WebhookURL, opts...)
}

// auditLog records audit events as structured log lines.
func auditLog() audithook.Recorder {
	l := logger.WithComponent("audit")
	return audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		l.Info().
			Str("action", evt.Action).
			Str("resource", evt.Resource).
			Str("resource_id", evt.ResourceID).
			Str("outcome", evt.Outcome).
			Str("severity", evt.Severity).
			Fields(evt.Metadata).
			Msg("audit")
		return nil
	})
}
