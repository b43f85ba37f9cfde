// Package main is the eventease server binary.
package main

import (
	"fmt"
	"os"

	"github.com/eventease-dev/eventease/db"
	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	configPath string
	envFile    string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "eventease",
	Short: "Collaborative event planning server",
	Long: `eventease serves the event planning API: accounts, events, checklists,
the checklist assistant, image verification and calendar export.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file (environment variables still apply)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap() (*config.AppConfig, *zap.Logger, *gorm.DB, error) {
	// A missing .env is normal outside development.
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, err
	}

	if envErr != nil {
		logger.Debug("No dotenv file loaded", zap.String("path", envFile), zap.Error(envErr))
	}

	database, err := db.ConnectDatabase(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("Failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Info("Database connection established", zap.String("driver", cfg.Database.Driver))

	return cfg, logger, database, nil
}
