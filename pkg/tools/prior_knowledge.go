package tools

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// PriorKnowledgeToolName is the well-known tool name for the
// prior-knowledge-lookup step mentioned in §1.
const PriorKnowledgeToolName = "prior_knowledge"

// PriorResearchSource is implemented by the Knowledge Store (C11). Declared
// here rather than imported directly so pkg/tools never depends on
// pkg/knowledge — the Knowledge Store instead satisfies this interface
// structurally when wired in cmd/research-agent.
type PriorResearchSource interface {
	SearchHybrid(ctx context.Context, query string, maxResults int) ([]PriorResearchHit, error)
}

// PriorResearchHit is one result surfaced from prior research.
type PriorResearchHit struct {
	LogID      string  `json:"logId"`
	Query      string  `json:"query"`
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"`
}

// PriorKnowledgeExecutor looks up prior research relevant to the current
// step's query via hybrid (lexical + semantic) search.
type PriorKnowledgeExecutor struct {
	source     PriorResearchSource
	maxResults int
}

// NewPriorKnowledgeExecutor wires a Knowledge Store implementation.
func NewPriorKnowledgeExecutor(source PriorResearchSource, maxResults int) *PriorKnowledgeExecutor {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &PriorKnowledgeExecutor{source: source, maxResults: maxResults}
}

func (e *PriorKnowledgeExecutor) Execute(ctx context.Context, step *model.Step, logID string) (Result, error) {
	query, _ := step.Config["query"].(string)
	if query == "" {
		return Result{Output: []PriorResearchHit{}}, nil
	}

	hits, err := e.source.SearchHybrid(ctx, query, e.maxResults)
	if err != nil {
		return Result{}, fmt.Errorf("prior knowledge search: %w", err)
	}
	return Result{Output: hits, Metadata: map[string]any{"hitCount": len(hits)}}, nil
}
