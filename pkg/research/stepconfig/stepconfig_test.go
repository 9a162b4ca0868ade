package stepconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

func TestGetDefaultConfig_WebSearchUsesPlanQuery(t *testing.T) {
	plan := &model.Plan{Query: "what is quantum computing"}
	cfg := GetDefaultConfig("web_search", plan, nil)
	assert.Equal(t, "what is quantum computing", cfg["query"])
	assert.Equal(t, defaultSearchMaxResults, cfg["maxResults"])
}

func TestGetDefaultConfig_WebSearchNoPlanUsesNeutralDefault(t *testing.T) {
	cfg := GetDefaultConfig("web_search", nil, nil)
	assert.NotEmpty(t, cfg["query"])
}

func TestGetDefaultConfig_WebFetchExtractsFirstURL(t *testing.T) {
	results := []*model.StepResult{
		{Status: model.StepCompleted, Output: []any{
			map[string]any{"title": "a"},
			map[string]any{"url": "https://example.com", "title": "b"},
		}},
	}
	cfg := GetDefaultConfig("web_fetch", nil, results)
	assert.Equal(t, "https://example.com", cfg["url"])
}

func TestGetDefaultConfig_WebFetchNoURLReturnsEmptyMap(t *testing.T) {
	cfg := GetDefaultConfig("web_fetch", nil, nil)
	assert.Empty(t, cfg)
}

func TestGetDefaultConfig_UnknownToolReturnsEmptyMap(t *testing.T) {
	cfg := GetDefaultConfig("some_other_tool", nil, nil)
	assert.Empty(t, cfg)
}

func TestEnrichSynthesizeStep_PreservesExistingKeys(t *testing.T) {
	step := &model.Step{Config: map[string]any{"query": "custom query", "extra": "keep-me"}}
	plan := &model.Plan{Query: "plan query"}

	EnrichSynthesizeStep(step, plan, nil)

	assert.Equal(t, "custom query", step.Config["query"])
	assert.Equal(t, "keep-me", step.Config["extra"])
	assert.NotEmpty(t, step.Config["systemPrompt"])
	assert.NotEmpty(t, step.Config["prompt"])
	assert.Equal(t, "", step.Config["context"])
}

func TestEnrichSynthesizeStep_FillsAllRequiredFields(t *testing.T) {
	step := &model.Step{}
	plan := &model.Plan{Query: "plan query"}
	results := []*model.StepResult{{Status: model.StepCompleted, Output: "fetched text"}}

	EnrichSynthesizeStep(step, plan, results)

	assert.Equal(t, "plan query", step.Config["query"])
	assert.Contains(t, step.Config["context"], "Fetched Content")
	assert.NotEmpty(t, step.Config["systemPrompt"])
	assert.NotEmpty(t, step.Config["prompt"])
}

func TestBuildSynthesisContext_EmptyWhenNoSources(t *testing.T) {
	assert.Equal(t, "", BuildSynthesisContext(nil))
}

func TestBuildSynthesisContext_OrdersSearchBeforeFetched(t *testing.T) {
	results := []*model.StepResult{
		{Status: model.StepCompleted, Output: []any{map[string]any{"title": "t", "url": "u", "content": "c"}}},
		{Status: model.StepCompleted, Output: "fetched body"},
	}
	ctx := BuildSynthesisContext(results)

	searchIdx := indexOf(ctx, "Search Results")
	fetchedIdx := indexOf(ctx, "Fetched Content")
	assert.True(t, searchIdx >= 0 && fetchedIdx >= 0 && searchIdx < fetchedIdx)
}

func TestBuildSynthesisContext_IgnoresNonCompletedResults(t *testing.T) {
	results := []*model.StepResult{
		{Status: model.StepFailed, Output: "should not appear"},
	}
	assert.Equal(t, "", BuildSynthesisContext(results))
}

func TestBuildSynthesisContext_Deterministic(t *testing.T) {
	results := []*model.StepResult{
		{Status: model.StepCompleted, Output: []any{map[string]any{"title": "a", "url": "u1"}}},
		{Status: model.StepCompleted, Output: "text1"},
	}
	first := BuildSynthesisContext(results)
	second := BuildSynthesisContext(results)
	assert.Equal(t, first, second)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
