// Package llm is the Go-side contract for calling a chat/embedding model
// host: the chat/embedding contracts the orchestrator core depends on,
// plus HTTPClient, a minimal HTTP/JSON implementation of them.
package llm

import "context"

// Client is implemented by every LLM provider backend wired into the
// Planner (C7), Query Decomposer (C6), Evaluation Coordinator (C8), and
// synthesis step executors.
type Client interface {
	// Chat sends a conversation to the model and returns a stream of
	// chunks. The returned channel is closed when the stream completes.
	// Failures after the stream has started are delivered as an
	// *ErrorChunk; a request that cannot be sent or is rejected by the
	// host returns a non-nil error from Chat itself.
	Chat(ctx context.Context, req *ChatRequest) (<-chan Chunk, error)

	// Embed returns one embedding vector per input text, in order.
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)

	// Close releases any held transport resources.
	Close() error
}

// Conversation message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is the Go-side chat message type.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant messages that called a tool
	ToolCallID string     // set on tool-result messages
	ToolName   string     // set on tool-result messages
}

// ToolDefinition describes a tool available to the model for this call.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string // JSON Schema
}

// ToolCall represents the model's request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// ChatRequest is the Go-side representation of a Chat call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition // nil = no tools offered
	Temperature *float32
	MaxTokens   *int32
}
