package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/research-agent/internal/httpapi"
	"github.com/codeready-toolchain/research-agent/internal/tracing"
	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/knowledge"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/decompose"
	"github.com/codeready-toolchain/research-agent/pkg/research/evaluate"
	"github.com/codeready-toolchain/research-agent/pkg/research/milestone"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
	"github.com/codeready-toolchain/research-agent/pkg/research/orchestrator"
	"github.com/codeready-toolchain/research-agent/pkg/research/phase"
	"github.com/codeready-toolchain/research-agent/pkg/research/plan"
	"github.com/codeready-toolchain/research-agent/pkg/research/registry"
	"github.com/codeready-toolchain/research-agent/pkg/tools"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	envPath := filepath.Join(flagConfigDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	cfg, err := config.Initialize(ctx, flagConfigDir)
	if err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	pool, err := connectPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	app, err := wireApplication(cfg, pool)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	slog.Info("starting research-agent", "http_port", cfg.Server.HTTPPort)
	return app.server.Engine().Run(":" + cfg.Server.HTTPPort)
}

// application holds every component wireApplication assembles for the
// serve subcommand. The migrate and backfill-embeddings subcommands do not
// use it; they open their own pool (and store) directly.
type application struct {
	orchestrator *orchestrator.Orchestrator
	knowledge    *knowledge.Store
	events       *events.Coordinator
	server       *httpapi.Server
}

// wireApplication assembles the full dependency graph per the component
// layering in SPEC_FULL.md §4: the Tool Registry feeds the Phase Executor,
// the Query Decomposer feeds the Planner, the Planner and Evaluation
// Coordinator feed the Orchestrator, and the Phase Executor Registry sits
// between the Orchestrator and the Phase Executor.
func wireApplication(cfg *config.Config, pool *pgxpool.Pool) (*application, error) {
	eventStore := events.NewPostgresStore(pool)
	eventCoordinator := events.NewCoordinator(eventStore)

	plannerProvider, err := cfg.GetLLMProvider(cfg.Planner.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("resolve planner llm provider: %w", err)
	}
	plannerClient := llm.NewHTTPClient(plannerProvider)

	evalProvider, err := cfg.GetLLMProvider(cfg.Evaluation.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("resolve evaluation llm provider: %w", err)
	}
	evalClient := llm.NewHTTPClient(evalProvider)

	var escalationCaller *evaluate.ModelCaller
	if cfg.Evaluation.EscalationModel != "" {
		escalationProvider, err := cfg.GetLLMProvider(cfg.Evaluation.EscalationModel)
		if err != nil {
			return nil, fmt.Errorf("resolve escalation llm provider: %w", err)
		}
		escalationCaller = &evaluate.ModelCaller{
			Client: llm.NewHTTPClient(escalationProvider),
			Model:  escalationProvider.LargeModel,
		}
	}

	knowledgeStore := knowledge.New(pool, plannerClient, plannerProvider.EmbeddingModel, plannerProvider.Model)

	toolRegistry := tools.NewRegistry()
	toolRegistry.Register(tools.SynthesizeToolName, tools.NewSynthesizeExecutor(plannerClient, plannerProvider.Model))
	toolRegistry.Register(tools.PriorKnowledgeToolName, tools.NewPriorKnowledgeExecutor(knowledgeStore, 5))

	milestoneEmitter := milestone.NewEmitter(eventCoordinator)
	phaseExecutor := phase.NewExecutor(toolRegistry, eventCoordinator, milestoneEmitter)

	evaluator := evaluate.New(
		evaluate.ModelCaller{Client: evalClient, Model: evalProvider.Model},
		escalationCaller,
		eventCoordinator,
		cfg.Evaluation,
	)
	confidenceScorer := evaluate.NewConfidenceScorer(evaluate.ModelCaller{Client: evalClient, Model: evalProvider.Model})
	reflector := evaluate.NewReflector(evaluate.ModelCaller{Client: evalClient, Model: evalProvider.Model})

	phaseRegistry := registry.New(phaseExecutor, eventCoordinator,
		registry.WithRetrievalEvaluator(retrievalEvaluatorAdapter{evaluator}),
		registry.WithConfidenceScorer(confidenceScorer),
		registry.WithReflector(reflector, cfg.Evaluation.Answer.MajorFailureThreshold),
	)

	var decomposer plan.Decomposer
	if cfg.Planner.DecompositionEnabled {
		decomposer = decompose.NewDecomposer(plannerClient, plannerProvider.Model, eventCoordinator)
	}
	planner := plan.New(plannerClient, plannerProvider.Model, decomposer, eventCoordinator, cfg.Planner)

	orch := orchestrator.New(
		planner,
		evaluator,
		phaseRegistry,
		orchestrator.AnswerExtractor{ExtractAnswer: registry.ExtractAnswer, ExtractSources: registry.ExtractSources},
		knowledgeStore,
		eventCoordinator,
		cfg.Evaluation,
	)

	server := httpapi.New(orch, eventCoordinator, knowledgeStore, pool, cfg.Server.GinMode)

	return &application{orchestrator: orch, knowledge: knowledgeStore, events: eventCoordinator, server: server}, nil
}

// retrievalEvaluatorAdapter satisfies registry.RetrievalEvaluator's
// single-error return by discarding the *model.EvaluationResult that
// evaluate.Coordinator.EvaluateRetrieval also returns — the registry's
// post-hook only needs to know whether evaluation itself failed to run,
// not the rubric outcome. No fail_action is applied to retrieval
// evaluation: a failed rubric result is dropped here, and an error is
// only logged by the post-hook.
type retrievalEvaluatorAdapter struct {
	coordinator *evaluate.Coordinator
}

func (a retrievalEvaluatorAdapter) EvaluateRetrieval(ctx context.Context, logID string, plan *model.Plan, results []*model.StepResult) error {
	_, err := a.coordinator.EvaluateRetrieval(ctx, logID, plan, results)
	return err
}

// connectPool opens a pgx pool against cfg, matching the
// pgvector/pgvector:pg16 image internal/testutil.RequirePostgres starts
// for tests — this is the same driver and extension, just against a
// long-lived connection instead of a disposable container.
func connectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
