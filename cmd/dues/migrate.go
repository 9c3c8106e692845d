package main

import (
	"github.com/spf13/cobra"

	"github.com/xraph/dues/internal/config"
	"github.com/xraph/dues/internal/logger"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Migrate(cmd.Context()); err != nil {
				return err
			}
			l := logger.WithComponent("migrate")
			l.Info().Str("store", cfg.Store).Msg("migrations applied")
			return nil
		},
	}
}
