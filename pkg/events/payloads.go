package events

// Payload shapes for every event type in the closed set (§6). Each is
// passed as the `data` argument to Coordinator.Emit and marshaled to JSON
// for persistence and SSE delivery.

// SessionStartedPayload is the data for session_started.
type SessionStartedPayload struct {
	Query string `json:"query"`
}

// SessionFailedPayload is the data for session_failed.
type SessionFailedPayload struct {
	Error string `json:"error"`
}

// PlanningIterationPayload is the data for planning_iteration.
type PlanningIterationPayload struct {
	Iteration    int `json:"iteration"`
	MaxIterations int `json:"maxIterations"`
}

// PlanCreatedPhase summarizes one phase inside a PlanCreatedPayload.
type PlanCreatedPhase struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Steps int    `json:"steps"`
}

// PlanCreatedPayload is the data for plan_created.
type PlanCreatedPayload struct {
	PlanID     string             `json:"planId"`
	Query      string             `json:"query"`
	TotalPhases int               `json:"totalPhases"`
	Phases     []PlanCreatedPhase `json:"phases"`
}

// PhaseAddedPayload is the data for phase_added.
type PhaseAddedPayload struct {
	PhaseID string `json:"phaseId"`
	Name    string `json:"name"`
}

// StepAddedPayload is the data for step_added.
type StepAddedPayload struct {
	StepID   string `json:"stepId"`
	ToolName string `json:"toolName"`
}

// DecompositionStartedPayload is the data for decomposition_started.
type DecompositionStartedPayload struct {
	Query string `json:"query"`
}

// SubQueryIdentifiedPayload is the data for sub_query_identified.
type SubQueryIdentifiedPayload struct {
	SubQueryID string `json:"subQueryId"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	Complexity int    `json:"complexity"`
}

// DecompositionCompletedPayload is the data for decomposition_completed.
type DecompositionCompletedPayload struct {
	IsComplex       bool   `json:"isComplex"`
	SubQueryCount   int    `json:"subQueryCount"`
	ExecutionPhases int    `json:"executionPhases"`
	DurationMs      int64  `json:"durationMs"`
	Error           string `json:"error,omitempty"`
}

// PhaseStartedPayload is the data for phase_started.
type PhaseStartedPayload struct {
	PhaseID      string `json:"phaseId"`
	PhaseName    string `json:"phaseName"`
	StepCount    int    `json:"stepCount"`
	SubQueryCount int   `json:"subQueryCount,omitempty"`
	IsDecomposed bool   `json:"isDecomposed,omitempty"`
}

// PhaseCompletedPayload is the data for phase_completed.
type PhaseCompletedPayload struct {
	PhaseID        string `json:"phaseId"`
	StepsCompleted int    `json:"stepsCompleted"`
}

// PhaseFailedPayload is the data for phase_failed.
type PhaseFailedPayload struct {
	PhaseID string `json:"phaseId"`
	StepID  string `json:"stepId"`
	Error   string `json:"error"`
}

// StepStartedPayload is the data for step_started.
type StepStartedPayload struct {
	StepID   string         `json:"stepId"`
	ToolName string         `json:"toolName"`
	Type     string         `json:"type"`
	Config   map[string]any `json:"config"`
}

// StepCompletedPayload is the data for step_completed.
type StepCompletedPayload struct {
	StepID     string         `json:"stepId"`
	ToolName   string         `json:"toolName"`
	Input      map[string]any `json:"input"`
	Output     any            `json:"output"`
	TokensUsed int            `json:"tokensUsed,omitempty"`
	DurationMs int64          `json:"durationMs"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// StepError is the error shape embedded in step_failed.
type StepError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// StepFailedPayload is the data for step_failed.
type StepFailedPayload struct {
	StepID     string         `json:"stepId"`
	ToolName   string         `json:"toolName"`
	Input      map[string]any `json:"input"`
	Error      StepError      `json:"error"`
	DurationMs int64          `json:"durationMs"`
}

// MilestonePayload is the data shared by milestone_started / _progress /
// _completed — the three differ only in EventType and Status/Progress.
type MilestonePayload struct {
	MilestoneID  string         `json:"milestoneId"`
	TemplateID   string         `json:"templateId"`
	Stage        int            `json:"stage"`
	Description  string         `json:"description"`
	Template     string         `json:"template"`
	TemplateData map[string]any `json:"templateData,omitempty"`
	Progress     float64        `json:"progress"`
	Status       string         `json:"status"`
}

// EvaluationStartedPayload is the data for evaluation_started.
type EvaluationStartedPayload struct {
	Phase string `json:"phase"`
	Query string `json:"query,omitempty"`
}

// EvaluationCompletedPayload is the data for evaluation_completed.
type EvaluationCompletedPayload struct {
	Phase                 string             `json:"phase"`
	Passed                bool               `json:"passed"`
	Scores                map[string]float64 `json:"scores"`
	Confidence            float64            `json:"confidence,omitempty"`
	TotalIterations        int               `json:"totalIterations"`
	EscalatedToLargeModel bool               `json:"escalatedToLargeModel"`
	EvaluationSkipped      bool              `json:"evaluationSkipped"`
	SkipReason             string            `json:"skipReason,omitempty"`
}

// EvaluationFailedPayload is the data for evaluation_failed.
type EvaluationFailedPayload struct {
	Phase string `json:"phase"`
	Error string `json:"error"`
}

// FinalSynthesisStartedPayload is the data for final_synthesis_started.
type FinalSynthesisStartedPayload struct {
	PhaseID       string `json:"phaseId"`
	SubQueryCount int    `json:"subQueryCount"`
}

// FinalSynthesisCompletedPayload is the data for final_synthesis_completed.
type FinalSynthesisCompletedPayload struct {
	PhaseID       string `json:"phaseId"`
	AnswerLength  int    `json:"answerLength"`
	SubQueryCount int    `json:"subQueryCount"`
}

// ConfidenceScoringPayload is the data shared by confidence_scoring_started
// / _completed / _failed.
type ConfidenceScoringPayload struct {
	PhaseName  string  `json:"phaseName"`
	PhaseID    string  `json:"phaseId"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// ReflectionIntegrationPayload is the data shared by
// reflection_integration_started / _completed / _failed.
type ReflectionIntegrationPayload struct {
	PhaseID    string  `json:"phaseId"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// DroppedPayload is the data for the synthetic "dropped" marker emitted
// when a slow subscriber's buffer overflows.
type DroppedPayload struct {
	Count int `json:"count"`
}
