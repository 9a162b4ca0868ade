package llm

// Chunk is the interface for all streaming chunk types a Client emits
// from Chat. Consumers type-switch on the concrete type.
type Chunk interface {
	chunkType() ChunkType
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText      ChunkType = "text"
	ChunkTypeThinking  ChunkType = "thinking"
	ChunkTypeToolCall  ChunkType = "tool_call"
	ChunkTypeUsage     ChunkType = "usage"
	ChunkTypeError     ChunkType = "error"
)

// TextChunk is a fragment of the model's visible response.
type TextChunk struct{ Content string }

// ThinkingChunk is a fragment of the model's internal reasoning, when the
// provider exposes one.
type ThinkingChunk struct{ Content string }

// ToolCallChunk signals the model wants to invoke a tool.
type ToolCallChunk struct{ CallID, Name, Arguments string }

// UsageChunk reports token consumption for the call that just completed.
type UsageChunk struct{ InputTokens, OutputTokens, TotalTokens int }

// ErrorChunk signals a provider-side error. Receiving one ends the stream.
type ErrorChunk struct {
	Message   string
	Retryable bool
}

func (c *TextChunk) chunkType() ChunkType     { return ChunkTypeText }
func (c *ThinkingChunk) chunkType() ChunkType { return ChunkTypeThinking }
func (c *ToolCallChunk) chunkType() ChunkType { return ChunkTypeToolCall }
func (c *UsageChunk) chunkType() ChunkType    { return ChunkTypeUsage }
func (c *ErrorChunk) chunkType() ChunkType    { return ChunkTypeError }
