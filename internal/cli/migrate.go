package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/actuallystonmai/predict-client/storage/pgstore"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL storage table",
	}
	cmd.AddCommand(newMigrateStepCmd("up", "Create the storage table", pgstore.MigrateUp))
	cmd.AddCommand(newMigrateStepCmd("down", "Drop the storage table", pgstore.MigrateDown))
	return cmd
}

func newMigrateStepCmd(use, short string, step func(ctx context.Context, pool *pgxpool.Pool) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := pgstore.Connect(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.WaitForDB(ctx, pool, 30, time.Second); err != nil {
				return err
			}
			log.Info().Msg("connected to PostgreSQL")

			if err := step(ctx, pool); err != nil {
				return err
			}
			log.Info().Str("direction", use).Msg("migrations applied successfully")
			return nil
		},
	}
}
