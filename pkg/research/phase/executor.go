// Package phase is the Phase Executor (C4): runs a single phase's steps
// to completion, batching them by dependency layer and executing each
// batch's steps concurrently.
package phase

import (
	"context"
	"sync"
	"time"

	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/layering"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
	"github.com/codeready-toolchain/research-agent/pkg/research/stepconfig"
	"github.com/codeready-toolchain/research-agent/pkg/tools"
)

// MilestoneEmitter is the slice of the Milestone Emitter (C9) the Phase
// Executor needs. Declared locally, rather than importing the milestone
// package directly, so the two can be wired together from cmd/ without
// either package depending on the other.
type MilestoneEmitter interface {
	EmitMilestonesForPhase(ctx context.Context, phase *model.Phase, logID, query string)
	EmitPhaseCompletion(ctx context.Context, phase *model.Phase, logID string)
}

// Result is what Execute returns: the phase's final status, every
// StepResult produced (in batch/declaration order, not completion
// order — §5 requires a stable order for downstream extraction), and
// the failure that stopped the phase, if any.
type Result struct {
	Status      model.PhaseStatus
	StepResults []*model.StepResult
	Error       string
}

// Executor runs phases against a shared tool registry and event
// coordinator.
type Executor struct {
	registry   *tools.Registry
	events     *events.Coordinator
	milestones MilestoneEmitter
}

// NewExecutor wires a Phase Executor. milestones may be nil, in which
// case no milestone events are emitted.
func NewExecutor(registry *tools.Registry, eventCoordinator *events.Coordinator, milestones MilestoneEmitter) *Executor {
	return &Executor{registry: registry, events: eventCoordinator, milestones: milestones}
}

// Execute runs phase to completion per §4.4: emits phase_started,
// asks the Milestone Emitter for preparatory milestones, builds the
// dependency-layered execution queue, runs each batch's steps
// concurrently, and stops before the next batch on any failure.
// accumulated is every StepResult from phases 1..k-1 (§5); each batch
// observes it plus every earlier batch's results from this phase, which
// is what synthesis enrichment (§4.4b) reads.
func (e *Executor) Execute(ctx context.Context, logID string, plan *model.Plan, phase *model.Phase, query string, accumulated []*model.StepResult) Result {
	phase.Status = model.PhaseRunning
	e.events.EmitPhaseStarted(ctx, logID, plan.ID, phase.ID, phase.Name, len(phase.Steps))

	if e.milestones != nil {
		e.milestones.EmitMilestonesForPhase(ctx, phase, logID, query)
	}

	batches := layering.Layer(phase.Steps,
		func(s *model.Step) string { return s.ID },
		func(s *model.Step) map[string]struct{} { return s.Dependencies },
	)

	var results []*model.StepResult
	var failed *model.StepResult

	for _, batch := range batches {
		batchAccumulated := append(append([]*model.StepResult{}, accumulated...), results...)
		batchResults := e.runBatch(ctx, logID, plan, phase, batch, batchAccumulated)
		results = append(results, batchResults...)

		for _, r := range batchResults {
			if r.Status == model.StepFailed {
				failed = r
				break
			}
		}
		if failed != nil {
			break
		}
	}

	if failed != nil {
		phase.Status = model.PhaseFailed
		e.events.EmitPhaseFailed(ctx, logID, plan.ID, phase.ID, failed.StepID, failed.Err)
		return Result{Status: model.PhaseFailed, StepResults: results, Error: failed.Err}
	}

	phase.Status = model.PhaseCompleted
	e.events.EmitPhaseCompleted(ctx, logID, plan.ID, phase.ID, len(results))
	if e.milestones != nil {
		e.milestones.EmitPhaseCompletion(ctx, phase, logID)
	}
	return Result{Status: model.PhaseCompleted, StepResults: results}
}

// runBatch executes every step in batch concurrently and returns their
// results in the same order as batch, regardless of completion order.
func (e *Executor) runBatch(ctx context.Context, logID string, plan *model.Plan, phase *model.Phase, batch []*model.Step, accumulated []*model.StepResult) []*model.StepResult {
	results := make([]*model.StepResult, len(batch))

	var wg sync.WaitGroup
	for i, step := range batch {
		wg.Add(1)
		go func(i int, step *model.Step) {
			defer wg.Done()
			results[i] = e.executeStep(ctx, logID, plan, phase, step, accumulated)
		}(i, step)
	}
	wg.Wait()

	return results
}

// executeStep runs one step per §4.4b.
func (e *Executor) executeStep(ctx context.Context, logID string, plan *model.Plan, phase *model.Phase, step *model.Step, accumulated []*model.StepResult) *model.StepResult {
	step.Status = model.StepRunning

	if step.ToolName == tools.SynthesizeToolName {
		stepconfig.EnrichSynthesizeStep(step, plan, accumulated)
	}
	if len(step.Config) == 0 {
		step.Config = stepconfig.GetDefaultConfig(step.ToolName, plan, accumulated)
	}

	e.events.EmitStepStarted(ctx, logID, plan.ID, phase.ID, step.ID, step.ToolName, string(step.Type), step.Config)

	start := time.Now()

	executor, err := e.registry.Get(step.ToolName)
	if err != nil {
		return e.failStep(ctx, logID, plan.ID, phase.ID, step, err, start)
	}

	result, err := executor.Execute(ctx, step, logID)
	if err != nil {
		return e.failStep(ctx, logID, plan.ID, phase.ID, step, err, start)
	}

	duration := time.Since(start).Milliseconds()
	step.Status = model.StepCompleted
	e.events.EmitStepCompleted(ctx, logID, plan.ID, phase.ID, events.StepCompletedPayload{
		StepID:     step.ID,
		ToolName:   step.ToolName,
		Input:      step.Config,
		Output:     result.Output,
		TokensUsed: result.TokensUsed,
		DurationMs: duration,
		Metadata:   result.Metadata,
	})

	return &model.StepResult{
		StepID:     step.ID,
		ToolName:   step.ToolName,
		Status:     model.StepCompleted,
		Input:      step.Config,
		Output:     result.Output,
		TokensUsed: result.TokensUsed,
		DurationMs: duration,
		Metadata:   result.Metadata,
	}
}

func (e *Executor) failStep(ctx context.Context, logID, planID, phaseID string, step *model.Step, stepErr error, start time.Time) *model.StepResult {
	duration := time.Since(start).Milliseconds()
	step.Status = model.StepFailed

	e.events.EmitStepFailed(ctx, logID, planID, phaseID, events.StepFailedPayload{
		StepID:     step.ID,
		ToolName:   step.ToolName,
		Input:      step.Config,
		Error:      events.StepError{Message: stepErr.Error()},
		DurationMs: duration,
	})

	return &model.StepResult{
		StepID:     step.ID,
		ToolName:   step.ToolName,
		Status:     model.StepFailed,
		Input:      step.Config,
		Err:        stepErr.Error(),
		DurationMs: duration,
	}
}
