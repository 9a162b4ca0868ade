package tools

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// SynthesizeToolName is the well-known tool name the Phase Executor
// special-cases for synthesis-context enrichment (§4.4b) and the Phase
// Executor Registry special-cases for answer extraction (§4.5).
const SynthesizeToolName = "synthesize"

// SynthesizeExecutor is the in-core LLM-backed tool behind "synthesize"
// steps. Concrete search/fetch tool adapters are out of this module's
// scope (§1); synthesis is not — it's exercised directly by the closed
// event set (final_synthesis_*, confidence_scoring_*).
type SynthesizeExecutor struct {
	client llm.Client
	model  string
}

// NewSynthesizeExecutor binds an LLM client and the model name to use for
// synthesis calls (typically the provider's primary model).
func NewSynthesizeExecutor(client llm.Client, model string) *SynthesizeExecutor {
	return &SynthesizeExecutor{client: client, model: model}
}

// Execute reads {query, context, systemPrompt, prompt} from step.Config
// (already populated by stepconfig.EnrichSynthesizeStep, §4.3) and returns the
// concatenated text response as Output.
func (e *SynthesizeExecutor) Execute(ctx context.Context, step *model.Step, logID string) (Result, error) {
	systemPrompt, _ := step.Config["systemPrompt"].(string)
	prompt, _ := step.Config["prompt"].(string)
	researchContext, _ := step.Config["context"].(string)
	query, _ := step.Config["query"].(string)

	userContent := prompt
	if researchContext != "" {
		userContent = fmt.Sprintf("%s\n\nQuery: %s\n\nResearch context:\n%s", prompt, query, researchContext)
	} else if query != "" {
		userContent = fmt.Sprintf("%s\n\nQuery: %s", prompt, query)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userContent},
	}

	collected, err := llm.CollectText(ctx, e.client, &llm.ChatRequest{Model: e.model, Messages: messages})
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: %w", err)
	}

	return Result{
		Output:     collected.Text,
		TokensUsed: collected.TokensUsed,
		Metadata:   map[string]any{"model": e.model},
	}, nil
}
