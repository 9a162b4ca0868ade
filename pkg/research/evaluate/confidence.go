package evaluate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// ConfidenceScorer implements the Phase Executor Registry's (C5)
// post-synthesis confidence step (§4.9's "invokes confidence scoring"),
// satisfying registry.ConfidenceScorer. Grounded on the same
// ModelCaller/CollectText/strict-JSON idiom as Coordinator.score, but for
// a single scalar rather than a per-dimension rubric.
type ConfidenceScorer struct {
	caller ModelCaller
}

// NewConfidenceScorer wires the model used to grade a synthesized answer.
func NewConfidenceScorer(caller ModelCaller) *ConfidenceScorer {
	return &ConfidenceScorer{caller: caller}
}

type confidenceResponse struct {
	Confidence float64 `json:"confidence"`
}

const confidenceSystemPrompt = `You are grading how well-supported an answer is by its sources. Respond with strict JSON only, no markdown fences, matching exactly: {"confidence": <float 0-1>}`

// ScoreConfidence asks the model to grade answer against sources on a
// single [0,1] scale.
func (c *ConfidenceScorer) ScoreConfidence(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, answer string, sources []model.Source) (float64, error) {
	collected, err := llm.CollectText(ctx, c.caller.Client, &llm.ChatRequest{
		Model: c.caller.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: confidenceSystemPrompt},
			{Role: llm.RoleUser, Content: renderAnswer(answer, sources)},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("confidence scoring call: %w", err)
	}

	var resp confidenceResponse
	if err := json.Unmarshal([]byte(stripMarkdownFences(collected.Text)), &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScoreResponse, err)
	}
	return clamp01(resp.Confidence), nil
}

// Reflector implements the optional bounded-iteration reflection step
// (§9 Open Questions): when confidence falls below the registry's floor,
// it asks the model for one revised answer grounded in the same sources.
// Declared alongside ConfidenceScorer since both are single-call,
// single-purpose LLM roles rather than the multi-dimension rubric loop
// Coordinator runs.
type Reflector struct {
	caller ModelCaller
}

// NewReflector wires the model used to revise a low-confidence answer.
func NewReflector(caller ModelCaller) *Reflector {
	return &Reflector{caller: caller}
}

const reflectionSystemPrompt = `The following answer was graded low-confidence. Revise it to be better grounded in the given sources, removing unsupported claims. Respond with the revised answer text only, no preamble, no markdown fences.`

// Reflect satisfies registry.Reflector.
func (r *Reflector) Reflect(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, answer string, sources []model.Source, confidence float64) (string, error) {
	collected, err := llm.CollectText(ctx, r.caller.Client, &llm.ChatRequest{
		Model: r.caller.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: reflectionSystemPrompt},
			{Role: llm.RoleUser, Content: renderAnswer(answer, sources)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("reflection call: %w", err)
	}
	return stripMarkdownFences(collected.Text), nil
}
