package events

import "context"

// Named convenience wrappers over Emit. Each populates the standard
// fields of its event type and forwards the routing ids a caller already
// has in hand, saving every other component from re-deriving the
// EmitOptions/payload boilerplate.

func (c *Coordinator) EmitSessionStarted(ctx context.Context, logID, query string) {
	c.Emit(ctx, logID, TypeSessionStarted, SessionStartedPayload{Query: query}, EmitOptions{})
}

func (c *Coordinator) EmitSessionCompleted(ctx context.Context, logID string) {
	c.Emit(ctx, logID, TypeSessionCompleted, struct{}{}, EmitOptions{})
}

func (c *Coordinator) EmitSessionFailed(ctx context.Context, logID, errMsg string) {
	c.Emit(ctx, logID, TypeSessionFailed, SessionFailedPayload{Error: errMsg}, EmitOptions{})
}

func (c *Coordinator) EmitPlanningStarted(ctx context.Context, logID string) {
	c.Emit(ctx, logID, TypePlanningStarted, struct{}{}, EmitOptions{})
}

func (c *Coordinator) EmitPlanningIteration(ctx context.Context, logID string, iteration, max int) {
	c.Emit(ctx, logID, TypePlanningIteration, PlanningIterationPayload{Iteration: iteration, MaxIterations: max}, EmitOptions{})
}

func (c *Coordinator) EmitPlanCreated(ctx context.Context, logID string, payload PlanCreatedPayload) {
	c.Emit(ctx, logID, TypePlanCreated, payload, EmitOptions{PlanID: payload.PlanID})
}

func (c *Coordinator) EmitPhaseAdded(ctx context.Context, logID, planID, phaseID, name string) {
	c.Emit(ctx, logID, TypePhaseAdded, PhaseAddedPayload{PhaseID: phaseID, Name: name}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitStepAdded(ctx context.Context, logID, planID, phaseID, stepID, toolName string) {
	c.Emit(ctx, logID, TypeStepAdded, StepAddedPayload{StepID: stepID, ToolName: toolName}, EmitOptions{PlanID: planID, PhaseID: phaseID, StepID: stepID})
}

func (c *Coordinator) EmitDecompositionStarted(ctx context.Context, logID, query string) {
	c.Emit(ctx, logID, TypeDecompositionStarted, DecompositionStartedPayload{Query: query}, EmitOptions{})
}

func (c *Coordinator) EmitSubQueryIdentified(ctx context.Context, logID string, payload SubQueryIdentifiedPayload) {
	c.Emit(ctx, logID, TypeSubQueryIdentified, payload, EmitOptions{})
}

func (c *Coordinator) EmitDecompositionCompleted(ctx context.Context, logID string, payload DecompositionCompletedPayload) {
	c.Emit(ctx, logID, TypeDecompositionCompleted, payload, EmitOptions{})
}

// EmitPhaseStarted populates phase_started from the values a Phase Executor
// invocation already has in hand.
func (c *Coordinator) EmitPhaseStarted(ctx context.Context, logID, planID, phaseID, phaseName string, stepCount int) {
	c.Emit(ctx, logID, TypePhaseStarted, PhaseStartedPayload{PhaseID: phaseID, PhaseName: phaseName, StepCount: stepCount}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

// EmitPhaseCompleted populates phase_completed.
func (c *Coordinator) EmitPhaseCompleted(ctx context.Context, logID, planID, phaseID string, stepsCompleted int) {
	c.Emit(ctx, logID, TypePhaseCompleted, PhaseCompletedPayload{PhaseID: phaseID, StepsCompleted: stepsCompleted}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

// EmitPhaseFailed populates phase_failed.
func (c *Coordinator) EmitPhaseFailed(ctx context.Context, logID, planID, phaseID, stepID, errMsg string) {
	c.Emit(ctx, logID, TypePhaseFailed, PhaseFailedPayload{PhaseID: phaseID, StepID: stepID, Error: errMsg}, EmitOptions{PlanID: planID, PhaseID: phaseID, StepID: stepID})
}

func (c *Coordinator) EmitStepStarted(ctx context.Context, logID, planID, phaseID, stepID, toolName, stepType string, config map[string]any) {
	c.Emit(ctx, logID, TypeStepStarted, StepStartedPayload{StepID: stepID, ToolName: toolName, Type: stepType, Config: config}, EmitOptions{PlanID: planID, PhaseID: phaseID, StepID: stepID})
}

func (c *Coordinator) EmitStepCompleted(ctx context.Context, logID, planID, phaseID string, payload StepCompletedPayload) {
	c.Emit(ctx, logID, TypeStepCompleted, payload, EmitOptions{PlanID: planID, PhaseID: phaseID, StepID: payload.StepID})
}

func (c *Coordinator) EmitStepFailed(ctx context.Context, logID, planID, phaseID string, payload StepFailedPayload) {
	c.Emit(ctx, logID, TypeStepFailed, payload, EmitOptions{PlanID: planID, PhaseID: phaseID, StepID: payload.StepID})
}

func (c *Coordinator) emitMilestone(ctx context.Context, logID, eventType string, payload MilestonePayload) {
	c.Emit(ctx, logID, eventType, payload, EmitOptions{})
}

func (c *Coordinator) EmitMilestoneStarted(ctx context.Context, logID string, payload MilestonePayload) {
	c.emitMilestone(ctx, logID, TypeMilestoneStarted, payload)
}

func (c *Coordinator) EmitMilestoneProgress(ctx context.Context, logID string, payload MilestonePayload) {
	c.emitMilestone(ctx, logID, TypeMilestoneProgress, payload)
}

func (c *Coordinator) EmitMilestoneCompleted(ctx context.Context, logID string, payload MilestonePayload) {
	c.emitMilestone(ctx, logID, TypeMilestoneCompleted, payload)
}

func (c *Coordinator) EmitEvaluationStarted(ctx context.Context, logID, phase, query string) {
	c.Emit(ctx, logID, TypeEvaluationStarted, EvaluationStartedPayload{Phase: phase, Query: query}, EmitOptions{})
}

func (c *Coordinator) EmitEvaluationCompleted(ctx context.Context, logID string, payload EvaluationCompletedPayload) {
	c.Emit(ctx, logID, TypeEvaluationCompleted, payload, EmitOptions{})
}

func (c *Coordinator) EmitEvaluationFailed(ctx context.Context, logID, phase, errMsg string) {
	c.Emit(ctx, logID, TypeEvaluationFailed, EvaluationFailedPayload{Phase: phase, Error: errMsg}, EmitOptions{})
}

func (c *Coordinator) EmitFinalSynthesisStarted(ctx context.Context, logID, planID, phaseID string, subQueryCount int) {
	c.Emit(ctx, logID, TypeFinalSynthesisStarted, FinalSynthesisStartedPayload{PhaseID: phaseID, SubQueryCount: subQueryCount}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitFinalSynthesisCompleted(ctx context.Context, logID, planID, phaseID string, answerLength, subQueryCount int) {
	c.Emit(ctx, logID, TypeFinalSynthesisCompleted, FinalSynthesisCompletedPayload{PhaseID: phaseID, AnswerLength: answerLength, SubQueryCount: subQueryCount}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitConfidenceScoringStarted(ctx context.Context, logID, planID, phaseID, phaseName string) {
	c.Emit(ctx, logID, TypeConfidenceScoringStarted, ConfidenceScoringPayload{PhaseName: phaseName, PhaseID: phaseID}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitConfidenceScoringCompleted(ctx context.Context, logID, planID, phaseID, phaseName string, confidence float64) {
	c.Emit(ctx, logID, TypeConfidenceScoringCompleted, ConfidenceScoringPayload{PhaseName: phaseName, PhaseID: phaseID, Confidence: confidence}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitConfidenceScoringFailed(ctx context.Context, logID, planID, phaseID, phaseName, errMsg string) {
	c.Emit(ctx, logID, TypeConfidenceScoringFailed, ConfidenceScoringPayload{PhaseName: phaseName, PhaseID: phaseID, Error: errMsg}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitReflectionIntegrationStarted(ctx context.Context, logID, planID, phaseID string, confidence float64) {
	c.Emit(ctx, logID, TypeReflectionIntegrationStarted, ReflectionIntegrationPayload{PhaseID: phaseID, Confidence: confidence}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitReflectionIntegrationCompleted(ctx context.Context, logID, planID, phaseID string, confidence float64) {
	c.Emit(ctx, logID, TypeReflectionIntegrationCompleted, ReflectionIntegrationPayload{PhaseID: phaseID, Confidence: confidence}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}

func (c *Coordinator) EmitReflectionIntegrationFailed(ctx context.Context, logID, planID, phaseID, errMsg string) {
	c.Emit(ctx, logID, TypeReflectionIntegrationFailed, ReflectionIntegrationPayload{PhaseID: phaseID, Error: errMsg}, EmitOptions{PlanID: planID, PhaseID: phaseID})
}
