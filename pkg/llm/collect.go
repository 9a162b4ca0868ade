package llm

import (
	"context"
	"fmt"
	"strings"
)

// Collected is the drained result of a non-streaming Chat call: every
// TextChunk concatenated in order, plus whatever usage accounting the
// provider reported.
type Collected struct {
	Text       string
	TokensUsed int
}

// CollectText drains a Chat stream for callers that don't need incremental
// delivery — the Planner, Query Decomposer, and Evaluation Coordinator all
// want one final string, not a live stream. Returns an error immediately
// if the stream ever delivers an *ErrorChunk.
func CollectText(ctx context.Context, client Client, req *ChatRequest) (Collected, error) {
	chunks, err := client.Chat(ctx, req)
	if err != nil {
		return Collected{}, fmt.Errorf("chat request: %w", err)
	}

	var text strings.Builder
	var tokensUsed int
	for chunk := range chunks {
		switch c := chunk.(type) {
		case *TextChunk:
			text.WriteString(c.Content)
		case *UsageChunk:
			tokensUsed = c.TotalTokens
		case *ErrorChunk:
			return Collected{}, fmt.Errorf("llm stream error: %s", c.Message)
		}
	}

	return Collected{Text: text.String(), TokensUsed: tokensUsed}, nil
}
