// Package events is the Event Coordinator: a durable, append-only log of
// session activity plus fan-out to live subscribers. Unlike a multi-pod
// WebSocket deployment, this orchestrator is single-process (see Non-goals:
// cluster-level job distribution), so fan-out is an in-process subscriber
// registry rather than PostgreSQL LISTEN/NOTIFY across replicas; persistence
// still goes through Postgres so a disconnected client can replay history
// via the log-reader endpoint.
package events

import "time"

// Event is a single append-only record in a session's log.
type Event struct {
	ID        string
	LogID     string
	Timestamp time.Time
	EventType string
	PlanID    string // optional
	PhaseID   string // optional
	StepID    string // optional
	Data      any
}

// Lifecycle event types.
const (
	TypeSessionStarted   = "session_started"
	TypeSessionCompleted = "session_completed"
	TypeSessionFailed    = "session_failed"
)

// Planning event types.
const (
	TypePlanningStarted   = "planning_started"
	TypePlanningIteration = "planning_iteration"
	TypePlanCreated       = "plan_created"
	TypePhaseAdded        = "phase_added"
	TypeStepAdded         = "step_added"
)

// Decomposition event types.
const (
	TypeDecompositionStarted    = "decomposition_started"
	TypeSubQueryIdentified      = "sub_query_identified"
	TypeDecompositionCompleted  = "decomposition_completed"
)

// Execution event types.
const (
	TypePhaseStarted   = "phase_started"
	TypePhaseCompleted = "phase_completed"
	TypePhaseFailed    = "phase_failed"
	TypeStepStarted    = "step_started"
	TypeStepCompleted  = "step_completed"
	TypeStepFailed     = "step_failed"
)

// Milestone event types.
const (
	TypeMilestoneStarted   = "milestone_started"
	TypeMilestoneProgress  = "milestone_progress"
	TypeMilestoneCompleted = "milestone_completed"
)

// Evaluation event types.
const (
	TypeEvaluationStarted   = "evaluation_started"
	TypeEvaluationCompleted = "evaluation_completed"
	TypeEvaluationFailed    = "evaluation_failed"
)

// Synthesis & confidence event types.
const (
	TypeFinalSynthesisStarted    = "final_synthesis_started"
	TypeFinalSynthesisCompleted  = "final_synthesis_completed"
	TypeConfidenceScoringStarted   = "confidence_scoring_started"
	TypeConfidenceScoringCompleted = "confidence_scoring_completed"
	TypeConfidenceScoringFailed    = "confidence_scoring_failed"
)

// Reflection event types (§9 Open Questions: emitted only when the
// Synthesis executor's reflection step is wired in — see
// pkg/research/registry).
const (
	TypeReflectionIntegrationStarted   = "reflection_integration_started"
	TypeReflectionIntegrationCompleted = "reflection_integration_completed"
	TypeReflectionIntegrationFailed    = "reflection_integration_failed"
)

// TypeDropped marks a gap in a slow subscriber's buffer (§4.1: the
// Coordinator drops from the head rather than blocking the producer).
const TypeDropped = "dropped"

// GlobalChannel receives a copy of every event regardless of logId, for
// process-wide observers (e.g. an admin dashboard listing active sessions).
const GlobalChannel = "*"
