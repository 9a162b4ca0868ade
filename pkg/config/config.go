// Package config loads and validates process-wide configuration for the
// research agent orchestrator: LLM provider settings, tool provider
// credentials, and the Evaluation Coordinator's rubric thresholds.
package config

// Config is the umbrella configuration object returned by Initialize.
type Config struct {
	configDir string

	Server      ServerConfig
	Database    DatabaseConfig
	Tracing     TracingConfig
	Planner     PlannerConfig
	Evaluation  EvaluationConfig
	LLMProviders *LLMProviderRegistry
	Tools       ToolsConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
	GinMode  string `yaml:"gin_mode"`
}

// DatabaseConfig holds Postgres connection settings for the Event
// Coordinator and Knowledge Store.
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
}

// TracingConfig controls optional OpenTelemetry export.
type TracingConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	ServiceName  string `yaml:"service_name,omitempty"`
}

// ToolsConfig holds provider credentials for concrete tool executors
// (search, fetch). The core never interprets these values — it only
// threads them to registered Executor implementations.
type ToolsConfig struct {
	SearchAPIKeyEnv string `yaml:"search_api_key_env,omitempty"`
	FetchUserAgent  string `yaml:"fetch_user_agent,omitempty"`
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetLLMProvider retrieves an LLM provider configuration by name.
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviders.Get(name)
}
