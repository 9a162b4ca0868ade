package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the on-disk YAML layout. Split from Config so the
// zero-value registries (maps keyed by provider name) can be told apart
// from "key present but empty" during the merge step.
type fileConfig struct {
	Server      *ServerConfig                `yaml:"server"`
	Database    *DatabaseConfig              `yaml:"database"`
	Tracing     *TracingConfig               `yaml:"tracing"`
	Planner     *PlannerConfig               `yaml:"planner"`
	Evaluation  *EvaluationConfig            `yaml:"evaluation"`
	Tools       *ToolsConfig                 `yaml:"tools"`
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads research-agent.yaml from configDir (if present),
// expands {{.VAR}} references against the process environment, merges it
// over the built-in defaults, and validates the result.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	fc, err := loadFile(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := defaultConfig()
	cfg.configDir = configDir
	mergeInto(cfg, fc)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized", "llm_providers", cfg.LLMProviders.Len())
	return cfg, nil
}

func loadFile(configDir string) (*fileConfig, error) {
	path := filepath.Join(configDir, "research-agent.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &fileConfig{}, nil
	}
	if err != nil {
		return nil, NewLoadError(path, err)
	}

	expanded := ExpandEnv(data)

	// Each section is decoded on top of a copy of its defaults, so a key
	// the file leaves out keeps its default value.
	d := defaultConfig()
	fc := fileConfig{Server: &d.Server, Database: &d.Database, Tracing: &d.Tracing, Planner: &d.Planner, Evaluation: &d.Evaluation, Tools: &d.Tools}
	if err := yaml.Unmarshal(expanded, &fc); err != nil {
		return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}
	return &fc, nil
}

// mergeInto copies the non-nil sections of fc onto cfg. loadFile decodes
// each section over its defaults, so a section the file sets only in part
// still carries the default values for the keys it leaves out. LLM
// providers have no defaults: the registry holds exactly the file's entries.
func mergeInto(cfg *Config, fc *fileConfig) {
	if fc.Server != nil {
		cfg.Server = *fc.Server
	}
	if fc.Database != nil {
		cfg.Database = *fc.Database
	}
	if fc.Tracing != nil {
		cfg.Tracing = *fc.Tracing
	}
	if fc.Planner != nil {
		cfg.Planner = *fc.Planner
	}
	if fc.Evaluation != nil {
		cfg.Evaluation = *fc.Evaluation
	}
	if fc.Tools != nil {
		cfg.Tools = *fc.Tools
	}

	providers := make(map[string]*LLMProviderConfig, len(fc.LLMProviders))
	for name, p := range fc.LLMProviders {
		p := p
		providers[name] = &p
	}
	cfg.LLMProviders = NewLLMProviderRegistry(providers)
}
