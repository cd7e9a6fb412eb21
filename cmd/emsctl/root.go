package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
	"github.com/Anereges/AITB-Employee-Management-System/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "emsctl",
	Short: "Operational tooling for the employee management service.",
	Long: `emsctl runs database migrations and bootstraps accounts against the database
configured for the current APP_ENV (./config/server/config.toml and EMS_* variables).`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newMigrateCmd(), newCreateAdminCmd())
}

// environment loads configuration and a logger for one command invocation.
func environment() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := server.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := server.NewLogger(cfg.Server.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}
