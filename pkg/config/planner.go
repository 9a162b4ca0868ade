package config

// PlannerConfig controls the Planner (C7) and Query Decomposer (C6).
type PlannerConfig struct {
	// MaxPlanningIterations bounds C7's planning loop (§4.7). Default 3.
	MaxPlanningIterations int `yaml:"max_planning_iterations" validate:"required,min=1"`

	// DecompositionEnabled gates whether the Planner consults the Query
	// Decomposer before building phases.
	DecompositionEnabled bool `yaml:"decomposition_enabled"`

	// LLMProvider names the entry in LLMProviders used for planning and
	// decomposition calls.
	LLMProvider string `yaml:"llm_provider" validate:"required"`
}

// EvaluationConfig is the construction-time configuration handed to the
// Evaluation Coordinator (C8) — see Design Note on global configuration
// loaded at import time becoming an explicit value passed at construction.
type EvaluationConfig struct {
	Plan      RubricConfig `yaml:"plan_evaluation"`
	Retrieval RubricConfig `yaml:"retrieval_evaluation"`
	Answer    RubricConfig `yaml:"answer_evaluation"`

	// EscalationModel names the large-model LLMProvider role used when a
	// rubric keeps failing through MaxAttempts. Empty disables escalation.
	EscalationModel string `yaml:"escalation_model,omitempty"`

	// LLMProvider names the entry in LLMProviders used for evaluator
	// role calls (unless a role overrides it).
	LLMProvider string `yaml:"llm_provider" validate:"required"`
}

// FailAction governs what the Orchestrator does when a rubric fails
// after exhausting its iteration budget.
type FailAction string

const (
	FailActionContinue FailAction = "continue"
	FailActionWarn     FailAction = "warn"
	FailActionBlock    FailAction = "block"
)

// RubricConfig configures one of the three evaluation rubrics (§4.8).
type RubricConfig struct {
	MaxAttempts          int                `yaml:"max_attempts" validate:"required,min=1"`
	PassThreshold         float64            `yaml:"pass_threshold" validate:"required,min=0,max=1"`
	DimensionThresholds    map[string]float64 `yaml:"dimension_thresholds,omitempty"`
	IterationEnabled       bool               `yaml:"iteration_enabled"`
	FailAction             FailAction         `yaml:"fail_action" validate:"required"`
	// SevereThreshold/MajorFailureThreshold are rubric-specific escape
	// hatches referenced by §4.8 defaults (retrieval/answer respectively).
	SevereThreshold        float64            `yaml:"severe_threshold,omitempty"`
	MajorFailureThreshold  float64            `yaml:"major_failure_threshold,omitempty"`
	// RoleTimeoutSeconds bounds a single evaluator-role LLM call (§5: 30-60s default).
	RoleTimeoutSeconds     int                `yaml:"role_timeout_seconds,omitempty"`
}
