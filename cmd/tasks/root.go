package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sun1tar/crm-tasks/internal/config"
	"github.com/sun1tar/crm-tasks/internal/repository"
	"github.com/sun1tar/crm-tasks/shared/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tasks",
	Short: "CRM tasks service",
	Long: `tasks serves the task list of a small CRM: pending, assigned and
completed tasks grouped by due date, with HTML pages and an XML representation.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newUserCmd())
}

// app - то, что нужно каждой команде: конфиг, логгер и хранилище
type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	store repository.Store
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.Init("tasks", cfg.LogLevel)

	store, err := openStore(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.WithField("driver", cfg.DB.Driver).Debug("storage ready")
	return &app{cfg: cfg, log: log, store: store}, nil
}

func openStore(db config.DatabaseConfig) (repository.Store, error) {
	if db.Driver == config.DriverMemory {
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.NewSQLStore(db.Driver, db.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return store, nil
}
