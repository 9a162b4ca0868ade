// Package evaluate is the Evaluation Coordinator (C8): it runs bounded
// iterative rubric evaluation over a plan, a retrieval, or an answer,
// aggregating one or more evaluator-role scores and escalating to a
// larger model when the primary model keeps failing. Grounded on the
// teacher's pkg/agent/controller/scoring.go (confidence scoring against
// rubric dimensions) and single_call.go (bounded single LLM round), with
// construction-time configuration per the Design Note on global
// configuration loaded at import time.
package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// defaultRoleTimeout is used when a rubric leaves RoleTimeoutSeconds unset
// (§5: "defaults 30-60s per role").
const defaultRoleTimeout = 45 * time.Second

// ModelCaller is the model a rubric's evaluator roles are invoked
// against. The Coordinator is constructed with a primary caller and,
// optionally, a larger escalation caller (§4.8 step 4).
type ModelCaller struct {
	Client llm.Client
	Model  string
}

// PlanImprover requests a replanned Plan when evaluatePlan keeps failing.
type PlanImprover func(ctx context.Context, scores map[string]float64) (*model.Plan, error)

// AnswerImprover requests a regenerated answer when evaluateAnswer keeps
// failing.
type AnswerImprover func(ctx context.Context, scores map[string]float64) (string, []model.Source, error)

// Coordinator is the C8 implementation.
type Coordinator struct {
	primary    ModelCaller
	escalation *ModelCaller // nil disables escalation
	events     *events.Coordinator
	cfg        config.EvaluationConfig
}

// New wires an Evaluation Coordinator. escalation may be nil to disable
// large-model escalation regardless of cfg.Evaluation.EscalationModel.
func New(primary ModelCaller, escalation *ModelCaller, eventCoordinator *events.Coordinator, cfg config.EvaluationConfig) *Coordinator {
	return &Coordinator{primary: primary, escalation: escalation, events: eventCoordinator, cfg: cfg}
}

// EvaluatePlan runs the plan rubric (§4.8) over plan, requesting a
// replan via improve when a non-final attempt fails. Returns the final
// EvaluationResult and the plan actually evaluated last (unchanged from
// the input if no replan ever ran).
func (c *Coordinator) EvaluatePlan(ctx context.Context, logID string, plan *model.Plan, improve PlanImprover) (*model.EvaluationResult, *model.Plan, error) {
	current := plan
	result, err := c.run(ctx, logID, model.EvaluationPlan, plan.Query, c.cfg.Plan,
		func() string { return renderPlan(current) },
		func(ctx context.Context, scores map[string]float64) error {
			if improve == nil {
				return errNoImprover
			}
			revised, err := improve(ctx, scores)
			if err != nil {
				return err
			}
			current = revised
			return nil
		},
	)
	return result, current, err
}

// EvaluateRetrieval runs the retrieval rubric over a batch of StepResults
// from a Search/Fetch phase (§4.5's post-hook). No regeneration callback
// is offered — concrete search/fetch tool adapters are out of this
// module's core scope (§1), so there is no generic way to request
// "additional retrieval"; a failing evaluation here is purely advisory
// and always logged-and-swallowed by the caller.
func (c *Coordinator) EvaluateRetrieval(ctx context.Context, logID string, plan *model.Plan, results []*model.StepResult) (*model.EvaluationResult, error) {
	query := ""
	if plan != nil {
		query = plan.Query
	}
	return c.run(ctx, logID, model.EvaluationRetrieval, query, c.cfg.Retrieval, func() string {
		return renderResults(results)
	}, nil)
}

// EvaluateAnswer runs the answer rubric over the synthesized answer and
// its sources, requesting a regenerated answer via improve on failure.
func (c *Coordinator) EvaluateAnswer(ctx context.Context, logID string, plan *model.Plan, answer string, sources []model.Source, improve AnswerImprover) (*model.EvaluationResult, string, error) {
	currentAnswer := answer
	currentSources := sources
	query := ""
	if plan != nil {
		query = plan.Query
	}
	result, err := c.run(ctx, logID, model.EvaluationAnswer, query, c.cfg.Answer,
		func() string { return renderAnswer(currentAnswer, currentSources) },
		func(ctx context.Context, scores map[string]float64) error {
			if improve == nil {
				return errNoImprover
			}
			revisedAnswer, revisedSources, err := improve(ctx, scores)
			if err != nil {
				return err
			}
			currentAnswer = revisedAnswer
			currentSources = revisedSources
			return nil
		},
	)
	return result, currentAnswer, err
}

var errNoImprover = fmt.Errorf("no improver configured")

// run implements the shared bounded loop described in §4.8: one
// evaluation_started, N scoring attempts (re-rendering the artifact via
// render after each improve call), one optional escalation pass, and one
// evaluation_completed — never more than one of each per call.
func (c *Coordinator) run(ctx context.Context, logID string, evalPhase model.EvaluationPhase, query string, rubric config.RubricConfig, render func() string, improve func(ctx context.Context, scores map[string]float64) error) (*model.EvaluationResult, error) {
	c.events.EmitEvaluationStarted(ctx, logID, string(evalPhase), query)

	dims := dimensionNames(rubric)
	var scores map[string]float64
	var passed bool
	attempts := 0

	for {
		attempts++
		s, err := c.score(ctx, c.primary, dims, render(), rubric.RoleTimeoutSeconds)
		switch {
		case errors.Is(err, ErrRoleTimeout):
			slog.Warn("evaluator role timed out", "log_id", logID, "phase", evalPhase, "attempt", attempts)
			scores = map[string]float64{}
			passed = false
		case err != nil:
			c.events.EmitEvaluationFailed(ctx, logID, string(evalPhase), err.Error())
			return nil, fmt.Errorf("evaluate %s: %w", evalPhase, err)
		default:
			scores = s
			passed = passes(rubric, scores)
		}

		if passed || !rubric.IterationEnabled || attempts >= rubric.MaxAttempts || improve == nil {
			break
		}
		if err := improve(ctx, scores); err != nil {
			break
		}
	}

	escalated := false
	if !passed && c.escalation != nil {
		if s, err := c.score(ctx, *c.escalation, dims, render(), rubric.RoleTimeoutSeconds); err == nil {
			scores = s
			passed = passes(rubric, scores)
			escalated = true
		}
	}

	result := &model.EvaluationResult{
		Phase:                 evalPhase,
		Status:                statusFor(passed),
		Scores:                scores,
		TotalIterations:       attempts,
		EscalatedToLargeModel: escalated,
	}

	c.events.EmitEvaluationCompleted(ctx, logID, events.EvaluationCompletedPayload{
		Phase:                 string(evalPhase),
		Passed:                passed,
		Scores:                scores,
		TotalIterations:       attempts,
		EscalatedToLargeModel: escalated,
	})

	return result, nil
}

func statusFor(passed bool) model.EvaluationStatus {
	if passed {
		return model.EvaluationPassed
	}
	return model.EvaluationFailed
}

// dimensionNames returns the rubric's scored dimensions. Dimension
// identity is data-driven from configuration (§4.8's per-dimension
// thresholds), not hardcoded per rubric — a config change adding a
// dimension needs no code change here.
func dimensionNames(rubric config.RubricConfig) []string {
	names := make([]string, 0, len(rubric.DimensionThresholds))
	for dim := range rubric.DimensionThresholds {
		names = append(names, dim)
	}
	return names
}

// passes applies §4.8 step 3: per-dimension thresholds, the rubric's
// severe/major-failure escape hatches, and the overall passThreshold.
func passes(rubric config.RubricConfig, scores map[string]float64) bool {
	floor := rubric.SevereThreshold
	if rubric.MajorFailureThreshold > floor {
		floor = rubric.MajorFailureThreshold
	}
	if floor > 0 {
		for _, v := range scores {
			if v < floor {
				return false
			}
		}
	}
	for dim, threshold := range rubric.DimensionThresholds {
		if v, ok := scores[dim]; ok && v < threshold {
			return false
		}
	}
	return average(scores) >= rubric.PassThreshold
}

func average(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// scoreResponse is the strict-JSON shape every evaluator role must
// return — one score per requested dimension, clamped to [0,1].
type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
}

// score calls caller with a prompt asking it to score each of dims in
// [0,1], parsing and clamping the strict-JSON response. Scores for
// dimensions the response didn't mention are omitted, not zeroed — a
// caller that aggregates multiple roles relies on that to know which
// role "owns" which dimension (§4.8 step 2: "last emitted value is
// authoritative"). timeoutSeconds bounds this single role call (§5);
// 0 falls back to defaultRoleTimeout. A deadline exceeded during the
// call is reported as ErrRoleTimeout so run can feed it into the
// rubric aggregate as a failed attempt rather than aborting evaluation.
func (c *Coordinator) score(ctx context.Context, caller ModelCaller, dims []string, artifact string, timeoutSeconds int) (map[string]float64, error) {
	timeout := defaultRoleTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := buildScoringPrompt(dims, artifact)

	collected, err := llm.CollectText(ctx, caller.Client, &llm.ChatRequest{
		Model: caller.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: scoringSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRoleTimeout, err)
		}
		return nil, fmt.Errorf("scoring call: %w", err)
	}

	raw := stripMarkdownFences(collected.Text)
	var resp scoreResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScoreResponse, err)
	}

	clamped := make(map[string]float64, len(resp.Scores))
	for dim, v := range resp.Scores {
		clamped[dim] = clamp01(v)
	}
	return clamped, nil
}

const scoringSystemPrompt = `You are a strict evaluator. Score the given artifact against each requested dimension on a scale from 0 to 1.
Respond with strict JSON only, no markdown fences, matching exactly: {"scores": {"<dimension>": <float 0-1>, ...}}`

func buildScoringPrompt(dims []string, artifact string) string {
	return fmt.Sprintf("Dimensions to score: %s\n\nArtifact:\n%s", strings.Join(dims, ", "), artifact)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
