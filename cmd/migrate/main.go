package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenviewsolutions/portal/internal/infrastructure/config"
	"github.com/greenviewsolutions/portal/internal/infrastructure/db/postgres"
	"github.com/greenviewsolutions/portal/pkg/logger"
)

func main() {
	log := logger.Init(logger.Options{Level: os.Getenv("LOG_LEVEL"), Service: "portal-migrate"})

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the customer directory schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(log)
			if err := postgres.Migrate(cmd.Context(), cfg.Postgres.DSN); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := cmd.Flags().GetInt("steps")
			if err != nil {
				return err
			}
			cfg := config.Load(log)
			if err := postgres.Rollback(cmd.Context(), cfg.Postgres.DSN, steps); err != nil {
				return err
			}
			log.Info().Int("steps", steps).Msg("migrations reverted")
			return nil
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to revert")
	root.AddCommand(down)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("migrate failed")
		cancel()
		os.Exit(1)
	}
}
