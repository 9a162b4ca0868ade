package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

type fakeLLMClient struct {
	chunks []llm.Chunk
	err    error
	lastReq *llm.ChatRequest
}

func (f *fakeLLMClient) Chat(ctx context.Context, req *llm.ChatRequest) (<-chan llm.Chunk, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan llm.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeLLMClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fakeLLMClient) Close() error { return nil }

func TestSynthesizeExecutor_ConcatenatesTextChunks(t *testing.T) {
	fake := &fakeLLMClient{chunks: []llm.Chunk{
		&llm.TextChunk{Content: "The answer "},
		&llm.TextChunk{Content: "is 42."},
		&llm.UsageChunk{TotalTokens: 99},
	}}
	exec := NewSynthesizeExecutor(fake, "test-model")

	step := &model.Step{Config: map[string]any{
		"query":        "what is the answer",
		"systemPrompt": "you are helpful",
		"prompt":       "answer the query",
		"context":      "Search Results:\n- some finding",
	}}

	result, err := exec.Execute(context.Background(), step, "log-1")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", result.Output)
	assert.Equal(t, 99, result.TokensUsed)
	assert.Contains(t, fake.lastReq.Messages[1].Content, "Search Results")
}

func TestSynthesizeExecutor_ErrorChunkFailsExecution(t *testing.T) {
	fake := &fakeLLMClient{chunks: []llm.Chunk{
		&llm.ErrorChunk{Message: "provider down"},
	}}
	exec := NewSynthesizeExecutor(fake, "test-model")

	_, err := exec.Execute(context.Background(), &model.Step{Config: map[string]any{}}, "log-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestSynthesizeExecutor_ChatRequestErrorPropagates(t *testing.T) {
	fake := &fakeLLMClient{err: assert.AnError}
	exec := NewSynthesizeExecutor(fake, "test-model")

	_, err := exec.Execute(context.Background(), &model.Step{Config: map[string]any{}}, "log-1")
	require.Error(t, err)
}
