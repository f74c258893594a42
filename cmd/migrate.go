package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update the database schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := newLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dbConn, err := db.Connect(ctx, cfg.DatabaseURL, 5*time.Second, logger)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if err := repositories.Migrate(migrateCtx, dbConn); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}
