package config

import (
	"fmt"
	"sync"
)

// LLMProviderType identifies the wire protocol used to reach a model host.
type LLMProviderType string

const (
	LLMProviderTypeOpenAICompatible LLMProviderType = "openai_compatible"
	LLMProviderTypeGemini           LLMProviderType = "gemini"
	LLMProviderTypeLocal            LLMProviderType = "local"
)

// LLMProviderConfig defines LLM provider configuration.
type LLMProviderConfig struct {
	Type LLMProviderType `yaml:"type" validate:"required"`

	// Model name used for planning, decomposition, and evaluation calls.
	Model string `yaml:"model" validate:"required"`

	// LargeModel is the model the escalation caller uses when this provider
	// is named by evaluation.escalation_model (§4.8).
	LargeModel string `yaml:"large_model,omitempty"`

	// EmbeddingModel is used by the Knowledge Store for hybrid search.
	EmbeddingModel string `yaml:"embedding_model,omitempty"`

	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url" validate:"required"`

	// RequestTimeoutSeconds bounds a single chat/embedding call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" validate:"required,min=1"`
}

// LLMProviderRegistry stores LLM provider configurations in memory with
// thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves an LLM provider configuration by name.
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (defensive copy).
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Len returns the number of configured LLM providers.
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
