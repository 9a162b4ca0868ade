package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/knowledge"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
)

var backfillBatchSize int

func newBackfillEmbeddingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill-embeddings",
		Short: "Compute embeddings for research_results rows saved without one",
		Long: `backfill-embeddings repeatedly asks the Knowledge Store for rows whose
embedding is still NULL (a prior Save call whose embedding computation
failed, per §4.11's non-fatal policy) and computes it, until a pass embeds
no rows (none left, or every remaining row failed again).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfillEmbeddings(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&backfillBatchSize, "batch-size", 50, "Rows to process per batch")
	return cmd
}

func runBackfillEmbeddings(ctx context.Context) error {
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

	provider, err := cfg.GetLLMProvider(cfg.Planner.LLMProvider)
	if err != nil {
		return fmt.Errorf("resolve embedding llm provider: %w", err)
	}
	client := llm.NewHTTPClient(provider)
	store := knowledge.New(pool, client, provider.EmbeddingModel, provider.Model)

	total := 0
	for {
		n, err := store.Backfill(ctx, backfillBatchSize)
		if err != nil {
			return fmt.Errorf("backfill batch: %w", err)
		}
		total += n
		slog.Info("backfill batch complete", "rows", n, "total", total)
		if n == 0 {
			break
		}
	}

	slog.Info("backfill complete", "total_rows", total)
	return nil
}
