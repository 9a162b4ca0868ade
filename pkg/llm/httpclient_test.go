package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/pkg/config"
)

func TestHTTPClient_Chat_StreamsChunksInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []map[string]any{
			{"type": "thinking", "content": "considering"},
			{"type": "text", "content": "hello"},
			{"type": "text", "content": " world"},
			{"type": "usage", "input_tokens": 10, "output_tokens": 2, "total_tokens": 12},
		}
		for _, l := range lines {
			b, _ := json.Marshal(l)
			w.Write(b)
			w.Write([]byte("\n"))
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(&config.LLMProviderConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 5})
	defer c.Close()

	chunks, err := c.Chat(context.Background(), &ChatRequest{Model: "test-model", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)

	var got []Chunk
	for ch := range chunks {
		got = append(got, ch)
	}
	require.Len(t, got, 4)
	assert.IsType(t, &ThinkingChunk{}, got[0])
	assert.Equal(t, "hello", got[1].(*TextChunk).Content)
	assert.Equal(t, " world", got[2].(*TextChunk).Content)
	usage := got[3].(*UsageChunk)
	assert.Equal(t, 12, usage.TotalTokens)
}

func TestHTTPClient_Chat_StopsOnErrorChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"text","content":"partial"}` + "\n"))
		w.Write([]byte(`{"type":"error","message":"provider overloaded","retryable":true}` + "\n"))
		w.Write([]byte(`{"type":"text","content":"never seen"}` + "\n"))
	}))
	defer srv.Close()

	c := NewHTTPClient(&config.LLMProviderConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 5})
	chunks, err := c.Chat(context.Background(), &ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)

	var got []Chunk
	for ch := range chunks {
		got = append(got, ch)
	}
	require.Len(t, got, 2)
	errChunk, ok := got[1].(*ErrorChunk)
	require.True(t, ok)
	assert.True(t, errChunk.Retryable)
}

func TestHTTPClient_Chat_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(&config.LLMProviderConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 5})
	_, err := c.Chat(context.Background(), &ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestHTTPClient_Embed_ReturnsVectorsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req embedWireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embedWireResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range req.Input {
			resp.Embeddings[i] = []float32{float32(i), float32(i) + 0.5}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewHTTPClient(&config.LLMProviderConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 5})
	vecs, err := c.Embed(context.Background(), "embed-model", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2, 2.5}, vecs[2])
}

func TestHTTPClient_Embed_EmptyInputReturnsNil(t *testing.T) {
	c := NewHTTPClient(&config.LLMProviderConfig{BaseURL: "http://unused"})
	vecs, err := c.Embed(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestHTTPClient_Embed_MismatchedCountIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedWireResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer srv.Close()

	c := NewHTTPClient(&config.LLMProviderConfig{BaseURL: srv.URL, RequestTimeoutSeconds: 5})
	_, err := c.Embed(context.Background(), "m", []string{"a", "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}
