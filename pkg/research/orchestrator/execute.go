package orchestrator

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// executePhases implements §4.10 steps 3-4: run each phase in order
// through the Phase Executor Registry, accumulating StepResults in
// phase order (declaration order within a phase, per §5), then evaluate
// the terminal synthesis phase's answer. Returns (answer, sources,
// blocked, error); blocked is true when answer evaluation's failAction
// is "block".
func (o *Orchestrator) executePhases(ctx context.Context, logID string, plan *model.Plan, query string) (string, []model.Source, bool, error) {
	var allPreviousResults []*model.StepResult

	var lastPhaseResults []*model.StepResult
	for _, ph := range plan.Phases {
		result := o.phases.Execute(ctx, logID, plan, ph, query, allPreviousResults)
		allPreviousResults = append(allPreviousResults, result.StepResults...)

		if result.Status == model.PhaseFailed {
			return "", nil, false, fmt.Errorf("phase %q failed: %s", ph.Name, result.Error)
		}
		lastPhaseResults = result.StepResults
	}

	answer, ok := o.extract.ExtractAnswer(lastPhaseResults)
	if !ok {
		return "", nil, false, fmt.Errorf("no synthesized answer found in terminal phase")
	}
	sources := o.extract.ExtractSources(allPreviousResults)

	evalResult, finalAnswer, err := o.evaluator.EvaluateAnswer(ctx, logID, plan, answer, sources, nil)
	if err != nil {
		return "", nil, false, fmt.Errorf("evaluate answer: %w", err)
	}

	if evalResult.Status == model.EvaluationFailed {
		switch o.evalCfg.Answer.FailAction {
		case config.FailActionBlock:
			return finalAnswer, sources, true, nil
		case config.FailActionWarn, config.FailActionContinue:
			// proceed with the (unchanged) answer regardless
		}
	}

	return finalAnswer, sources, false, nil
}
