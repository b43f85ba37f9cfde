package main

import (
	"github.com/eventease-dev/eventease/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, logger, database, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if err := db.MigrateDatabase(database); err != nil {
		logger.Error("Migration failed", zap.Error(err))
		return err
	}

	logger.Info("Database migrated", zap.Int("models", len(db.Models())))
	return nil
}
