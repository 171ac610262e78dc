package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"legal_intake_backend/platform/config"
	"legal_intake_backend/platform/db"
	"legal_intake_backend/platform/logger"
	"legal_intake_backend/platform/retry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crmctl",
	Short: "Operate the legal intake pipeline database",
	Long:  "Runs schema migrations, loads pipeline reference data and inspects the triage queues.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		log = logger.NewWithWriter(cfg.Env, cmd.ErrOrStderr())
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, leadsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect opens a pool, retrying while the database comes up.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := retry.Do(ctx, log, "database connection", 3, time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	return pool, err
}
