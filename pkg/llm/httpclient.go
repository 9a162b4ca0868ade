package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/codeready-toolchain/research-agent/pkg/config"
)

// ErrRequestFailed wraps a non-2xx response from the model host.
var ErrRequestFailed = errors.New("llm request failed")

// HTTPClient is a Client backed by a plain HTTP/JSON chat-completions and
// embeddings host. It speaks a minimal, OpenAI-compatible-shaped wire
// format: POST {baseURL}/chat with a message array and a streamed
// newline-delimited-JSON response body, and POST {baseURL}/embeddings
// for embedding vectors.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	timeout    time.Duration
}

// NewHTTPClient builds an HTTPClient from a provider's configuration.
func NewHTTPClient(cfg *config.LLMProviderConfig) *HTTPClient {
	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	return &HTTPClient{
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		apiKey:     apiKey,
		timeout:    time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	}
}

func (c *HTTPClient) Close() error { return nil }

type wireMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolName   string        `json:"tool_name,omitempty"`
}

type wireToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireToolDef struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	ParametersSchema string `json:"parameters_schema"`
}

type chatWireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireToolDef `json:"tools,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int32        `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// chatWireChunk is one line of the streamed NDJSON response body.
type chatWireChunk struct {
	Type      string `json:"type"` // text|thinking|tool_call|usage|error
	Content   string `json:"content,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`

	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// Chat implements Client. The model host is expected to stream one JSON
// object per line; the final line of a successful call normally carries
// type "usage". The request timeout bounds the whole call, stream
// included.
func (c *HTTPClient) Chat(ctx context.Context, req *ChatRequest) (<-chan Chunk, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	streaming := false
	defer func() {
		if !streaming {
			cancel()
		}
	}()

	wireReq := chatWireRequest{
		Model:       req.Model,
		Messages:    toWireMessages(req.Messages),
		Tools:       toWireTools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}
	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	chunks := make(chan Chunk, 32)
	streaming = true
	go func() {
		defer cancel()
		defer close(chunks)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var wc chatWireChunk
			if err := json.Unmarshal(line, &wc); err != nil {
				select {
				case chunks <- &ErrorChunk{Message: fmt.Sprintf("malformed stream chunk: %v", err)}:
				case <-ctx.Done():
				}
				return
			}
			chunk := toChunk(wc)
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
			if _, isErr := chunk.(*ErrorChunk); isErr {
				return
			}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			select {
			case chunks <- &ErrorChunk{Message: err.Error(), Retryable: true}:
			case <-ctx.Done():
			}
		}
	}()

	return chunks, nil
}

type embedWireRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedWireResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements Client.
func (c *HTTPClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(embedWireRequest{Model: model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var wireResp embedWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wireResp); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(wireResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrRequestFailed, len(texts), len(wireResp.Embeddings))
	}
	return wireResp.Embeddings, nil
}

func toWireMessages(msgs []Message) []wireMessage {
	out := make([]wireMessage, len(msgs))
	for i, m := range msgs {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			ToolName:   m.ToolName,
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
		}
		out[i] = wm
	}
	return out
}

func toWireTools(defs []ToolDefinition) []wireToolDef {
	if defs == nil {
		return nil
	}
	out := make([]wireToolDef, len(defs))
	for i, d := range defs {
		out[i] = wireToolDef{Name: d.Name, Description: d.Description, ParametersSchema: d.ParametersSchema}
	}
	return out
}

func toChunk(wc chatWireChunk) Chunk {
	switch wc.Type {
	case "thinking":
		return &ThinkingChunk{Content: wc.Content}
	case "tool_call":
		return &ToolCallChunk{CallID: wc.CallID, Name: wc.Name, Arguments: wc.Arguments}
	case "usage":
		return &UsageChunk{InputTokens: wc.InputTokens, OutputTokens: wc.OutputTokens, TotalTokens: wc.TotalTokens}
	case "error":
		return &ErrorChunk{Message: wc.Message, Retryable: wc.Retryable}
	default:
		return &TextChunk{Content: wc.Content}
	}
}
