package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkshelf/linkshelf/internal/config"
	"github.com/linkshelf/linkshelf/internal/db"
	"github.com/linkshelf/linkshelf/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations (sql backend only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store.Backend != "sql" {
				return fmt.Errorf("migrate requires store backend sql (configured: %s)", cfg.Store.Backend)
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			log.WithField("driver", cfg.DB.Driver).Info("migrations complete")
			return nil
		},
	}
}
