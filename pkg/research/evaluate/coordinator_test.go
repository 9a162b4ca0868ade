package evaluate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// blockingLLMClient never replies until its caller's context is done,
// simulating a role call that exceeds its deadline.
type blockingLLMClient struct{}

func (f *blockingLLMClient) Chat(ctx context.Context, req *llm.ChatRequest) (<-chan llm.Chunk, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *blockingLLMClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	return nil, nil
}

func (f *blockingLLMClient) Close() error { return nil }

type fakeLLMClient struct {
	texts []string
	i     int
}

func (f *fakeLLMClient) Chat(ctx context.Context, req *llm.ChatRequest) (<-chan llm.Chunk, error) {
	text := f.texts[f.i]
	if f.i < len(f.texts)-1 {
		f.i++
	}
	ch := make(chan llm.Chunk, 1)
	ch <- &llm.TextChunk{Content: text}
	close(ch)
	return ch, nil
}

func (f *fakeLLMClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	return nil, nil
}

func (f *fakeLLMClient) Close() error { return nil }

func testRubric() config.RubricConfig {
	return config.RubricConfig{
		MaxAttempts:      2,
		PassThreshold:    0.7,
		IterationEnabled: true,
		FailAction:       config.FailActionWarn,
		DimensionThresholds: map[string]float64{
			"completeness": 0.5,
		},
	}
}

func TestEvaluatePlan_PassesOnFirstAttempt(t *testing.T) {
	cfg := config.EvaluationConfig{Plan: testRubric()}
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{`{"scores": {"completeness": 0.9}}`}}, Model: "m"}
	c := New(caller, nil, events.NewCoordinator(nil), cfg)

	plan := &model.Plan{ID: "p1", Query: "q"}
	result, finalPlan, err := c.EvaluatePlan(context.Background(), "log-1", plan, nil)
	require.NoError(t, err)
	assert.Equal(t, model.EvaluationPassed, result.Status)
	assert.Equal(t, 1, result.TotalIterations)
	assert.Same(t, plan, finalPlan)
}

func TestEvaluatePlan_FailsAndRequestsImproveUntilCeiling(t *testing.T) {
	cfg := config.EvaluationConfig{Plan: testRubric()}
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{
		`{"scores": {"completeness": 0.1}}`,
		`{"scores": {"completeness": 0.2}}`,
	}}, Model: "m"}
	c := New(caller, nil, events.NewCoordinator(nil), cfg)

	plan := &model.Plan{ID: "p1", Query: "q"}
	improveCalls := 0
	improve := func(ctx context.Context, scores map[string]float64) (*model.Plan, error) {
		improveCalls++
		return plan, nil
	}

	result, _, err := c.EvaluatePlan(context.Background(), "log-1", plan, improve)
	require.NoError(t, err)
	assert.Equal(t, model.EvaluationFailed, result.Status)
	assert.Equal(t, 2, result.TotalIterations)
	assert.Equal(t, 1, improveCalls)
}

func TestEvaluatePlan_EscalatesWhenPrimaryFails(t *testing.T) {
	cfg := config.EvaluationConfig{Plan: testRubric()}
	cfg.Plan.MaxAttempts = 1
	primary := ModelCaller{Client: &fakeLLMClient{texts: []string{`{"scores": {"completeness": 0.1}}`}}, Model: "m"}
	escalation := ModelCaller{Client: &fakeLLMClient{texts: []string{`{"scores": {"completeness": 0.9}}`}}, Model: "big"}
	c := New(primary, &escalation, events.NewCoordinator(nil), cfg)

	plan := &model.Plan{ID: "p1", Query: "q"}
	result, _, err := c.EvaluatePlan(context.Background(), "log-1", plan, nil)
	require.NoError(t, err)
	assert.Equal(t, model.EvaluationPassed, result.Status)
	assert.True(t, result.EscalatedToLargeModel)
}

func TestEvaluatePlan_RoleTimeoutFeedsFailedScoreIntoAggregateRatherThanAborting(t *testing.T) {
	rubric := testRubric()
	rubric.IterationEnabled = false
	rubric.RoleTimeoutSeconds = 1
	cfg := config.EvaluationConfig{Plan: rubric}
	caller := ModelCaller{Client: &blockingLLMClient{}, Model: "m"}
	c := New(caller, nil, events.NewCoordinator(nil), cfg)

	// An already-expired parent deadline makes the per-role context
	// derived inside score() immediately Done, so the test doesn't
	// actually wait out RoleTimeoutSeconds.
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Hour))
	defer cancel()

	plan := &model.Plan{ID: "p1", Query: "q"}
	result, _, err := c.EvaluatePlan(ctx, "log-1", plan, nil)
	require.NoError(t, err, "a role timeout must feed a failed score into the rubric, not abort the evaluation")
	assert.Equal(t, model.EvaluationFailed, result.Status)
	assert.Equal(t, 1, result.TotalIterations)
}

func TestEvaluateRetrieval_NoImproverStillScoresOnce(t *testing.T) {
	cfg := config.EvaluationConfig{Retrieval: testRubric()}
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{`{"scores": {"completeness": 0.8}}`}}, Model: "m"}
	c := New(caller, nil, events.NewCoordinator(nil), cfg)

	plan := &model.Plan{ID: "p1", Query: "q"}
	results := []*model.StepResult{{StepID: "s1", Output: []any{map[string]any{"url": "http://x", "content": "y"}}}}

	result, err := c.EvaluateRetrieval(context.Background(), "log-1", plan, results)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalIterations)
}

func TestEvaluateAnswer_ReturnsRevisedAnswerOnImprove(t *testing.T) {
	cfg := config.EvaluationConfig{Answer: testRubric()}
	cfg.Answer.MaxAttempts = 2
	caller := ModelCaller{Client: &fakeLLMClient{texts: []string{
		`{"scores": {"completeness": 0.1}}`,
		`{"scores": {"completeness": 0.9}}`,
	}}, Model: "m"}
	c := New(caller, nil, events.NewCoordinator(nil), cfg)

	plan := &model.Plan{ID: "p1", Query: "q"}
	improve := func(ctx context.Context, scores map[string]float64) (string, []model.Source, error) {
		return "a better answer", nil, nil
	}

	result, finalAnswer, err := c.EvaluateAnswer(context.Background(), "log-1", plan, "first draft", nil, improve)
	require.NoError(t, err)
	assert.Equal(t, model.EvaluationPassed, result.Status)
	assert.Equal(t, "a better answer", finalAnswer)
}
