package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/knowledge"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the events and research_results schema",
		Long: `migrate executes pkg/events.Schema and pkg/knowledge.Schema against the
configured database. There is no migration framework (see DESIGN.md): both
are idempotent CREATE TABLE/INDEX IF NOT EXISTS statements, safe to rerun.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	envPath := filepath.Join(flagConfigDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := config.Initialize(ctx, flagConfigDir)
	if err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}

	pool, err := connectPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, events.Schema); err != nil {
		return fmt.Errorf("apply events schema: %w", err)
	}
	if _, err := pool.Exec(ctx, knowledge.Schema); err != nil {
		return fmt.Errorf("apply knowledge schema: %w", err)
	}

	slog.Info("schema applied")
	return nil
}
