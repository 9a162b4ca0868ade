package config

import "fmt"

// validate checks structural invariants across the merged configuration.
// It intentionally does not use a reflection-based validator library —
// the teacher's `validate:"..."` struct tags drove a generated validator
// pipeline over registries (agents/chains/MCP servers) we no longer
// have; this hand-rolled pass covers the handful of fields that still
// need checking.
func validate(cfg *Config) error {
	if cfg.Planner.LLMProvider == "" {
		return NewValidationError("planner", "planner", "llm_provider", ErrMissingRequiredField)
	}
	if _, err := cfg.LLMProviders.Get(cfg.Planner.LLMProvider); err != nil {
		return NewValidationError("planner", "planner", "llm_provider", err)
	}

	if cfg.Evaluation.LLMProvider == "" {
		return NewValidationError("evaluation", "evaluation", "llm_provider", ErrMissingRequiredField)
	}
	if _, err := cfg.LLMProviders.Get(cfg.Evaluation.LLMProvider); err != nil {
		return NewValidationError("evaluation", "evaluation", "llm_provider", err)
	}
	if cfg.Evaluation.EscalationModel != "" {
		if _, err := cfg.LLMProviders.Get(cfg.Evaluation.EscalationModel); err != nil {
			return NewValidationError("evaluation", "evaluation", "escalation_model", err)
		}
	}

	for name, rubric := range map[string]RubricConfig{
		"plan_evaluation":      cfg.Evaluation.Plan,
		"retrieval_evaluation": cfg.Evaluation.Retrieval,
		"answer_evaluation":    cfg.Evaluation.Answer,
	} {
		if err := validateRubric(name, rubric); err != nil {
			return err
		}
	}

	for name, p := range cfg.LLMProviders.GetAll() {
		if err := validateLLMProvider(name, p); err != nil {
			return err
		}
	}

	return nil
}

func validateRubric(name string, r RubricConfig) error {
	if r.MaxAttempts < 1 {
		return NewValidationError("rubric", name, "max_attempts", ErrInvalidValue)
	}
	if r.PassThreshold < 0 || r.PassThreshold > 1 {
		return NewValidationError("rubric", name, "pass_threshold", ErrInvalidValue)
	}
	switch r.FailAction {
	case FailActionContinue, FailActionWarn, FailActionBlock:
	default:
		return NewValidationError("rubric", name, "fail_action", fmt.Errorf("%w: %q", ErrInvalidValue, r.FailAction))
	}
	for dim, threshold := range r.DimensionThresholds {
		if threshold < 0 || threshold > 1 {
			return NewValidationError("rubric", name, "dimension_thresholds."+dim, ErrInvalidValue)
		}
	}
	return nil
}

func validateLLMProvider(name string, p *LLMProviderConfig) error {
	if p.Model == "" {
		return NewValidationError("llm_provider", name, "model", ErrMissingRequiredField)
	}
	if p.BaseURL == "" {
		return NewValidationError("llm_provider", name, "base_url", ErrMissingRequiredField)
	}
	if p.RequestTimeoutSeconds < 1 {
		return NewValidationError("llm_provider", name, "request_timeout_seconds", ErrInvalidValue)
	}
	return nil
}
