// Package registry is the Phase Executor Registry (C5): it dispatches a
// phase to the specialized executor (search/fetch/synthesis/generic)
// that wraps the Phase Executor (C4) with a post-hook, matching by
// case-insensitive substring on the phase name exactly as the Milestone
// Emitter (C9) classifies stages. Grounded on the teacher's
// pkg/agent/controller/factory.go name-based controller dispatch.
package registry

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
	"github.com/codeready-toolchain/research-agent/pkg/research/phase"
)

// PhaseRunner is the slice of the Phase Executor (C4) a specialized
// executor wraps. Declared locally so this package never imports
// pkg/research/phase's internals beyond its public Execute contract.
type PhaseRunner interface {
	Execute(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, query string, accumulated []*model.StepResult) phase.Result
}

// RetrievalEvaluator is the slice of the Evaluation Coordinator (C8) the
// Search/Fetch executors invoke after a non-empty retrieval.
type RetrievalEvaluator interface {
	EvaluateRetrieval(ctx context.Context, logID string, plan *model.Plan, results []*model.StepResult) error
}

// ConfidenceScorer assigns a confidence score to a synthesized answer.
// The answer rubric itself (evaluateAnswer) is run by the Orchestrator
// (C10) after the terminal synthesis phase, per §4.10 step 4 — not here.
type ConfidenceScorer interface {
	ScoreConfidence(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, answer string, sources []model.Source) (float64, error)
}

// Reflector is the optional best-understood-as-an-extension-of-Synthesis
// refinement step (§9 Open Questions): it may rewrite answer given a low
// confidence score. A nil Reflector disables it entirely, in which case
// reflection_integration_* events (§9) are never emitted.
type Reflector interface {
	Reflect(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, answer string, sources []model.Source, confidence float64) (string, error)
}

// Registry holds the ordered list of specialized executors and returns
// the first whose name-based rule matches, defaulting to generic.
type Registry struct {
	base            PhaseRunner
	events          *events.Coordinator
	retrieval       RetrievalEvaluator
	confidence      ConfidenceScorer
	reflector       Reflector
	confidenceFloor float64
}

// Option configures optional post-hooks on a Registry.
type Option func(*Registry)

// WithRetrievalEvaluator wires the Search/Fetch post-hook (§4.5).
func WithRetrievalEvaluator(e RetrievalEvaluator) Option {
	return func(r *Registry) { r.retrieval = e }
}

// WithConfidenceScorer wires the Synthesis post-hook's confidence step.
func WithConfidenceScorer(c ConfidenceScorer) Option {
	return func(r *Registry) { r.confidence = c }
}

// WithReflector wires optional bounded-iteration reflection, triggered
// when confidence falls below confidenceFloor.
func WithReflector(ref Reflector, confidenceFloor float64) Option {
	return func(r *Registry) {
		r.reflector = ref
		r.confidenceFloor = confidenceFloor
	}
}

// New wires a Phase Executor Registry around a base Phase Executor and a
// shared event coordinator, with optional evaluation/confidence/reflection
// hooks (all best-effort per §4.5, never causing the phase to fail).
func New(base PhaseRunner, eventCoordinator *events.Coordinator, opts ...Option) *Registry {
	r := &Registry{base: base, events: eventCoordinator}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// kind is the coarse classification used to pick a specialized executor.
type kind int

const (
	kindSearch kind = iota
	kindFetch
	kindSynthesis
	kindGeneric
)

// classify matches §4.5's substring rules, case-insensitive on phase.Name.
func classify(name string) kind {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, "search", "query", "initial"):
		return kindSearch
	case containsAny(lower, "fetch", "gather", "content"):
		return kindFetch
	case containsAny(lower, "synth", "answer", "generat"):
		return kindSynthesis
	default:
		return kindGeneric
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Execute dispatches ph to its specialized executor and runs the
// matching post-hook. accumulated is every StepResult from prior phases,
// handed to the retrieval/answer extraction helpers.
func (r *Registry) Execute(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, query string, accumulated []*model.StepResult) phase.Result {
	result := r.base.Execute(ctx, logID, plan, ph, query, accumulated)
	if result.Status != model.PhaseCompleted {
		return result
	}

	switch classify(ph.Name) {
	case kindSearch, kindFetch:
		r.afterRetrieval(ctx, logID, plan, result.StepResults)
	case kindSynthesis:
		r.afterSynthesis(ctx, logID, plan, ph, accumulated, result.StepResults)
	}

	return result
}

// afterRetrieval implements the Search/Fetch post-hook: if any collected
// output is a non-empty sequence, invoke retrieval evaluation. Failure is
// logged and swallowed — evaluation never fails the phase (§4.5, §7).
func (r *Registry) afterRetrieval(ctx context.Context, logID string, plan *model.Plan, results []*model.StepResult) {
	if r.retrieval == nil || !hasNonEmptySequence(results) {
		return
	}
	if err := r.retrieval.EvaluateRetrieval(ctx, logID, plan, results); err != nil {
		slog.Error("retrieval evaluation failed", "log_id", logID, "error", err)
	}
}

func hasNonEmptySequence(results []*model.StepResult) bool {
	for _, r := range results {
		if items, ok := r.Output.([]any); ok && len(items) > 0 {
			return true
		}
	}
	return false
}

// afterSynthesis implements the Synthesis post-hook: extract the final
// answer and sources, score confidence, then optionally reflect. Every
// step is best-effort.
func (r *Registry) afterSynthesis(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, accumulated []*model.StepResult, phaseResults []*model.StepResult) {
	answer, ok := ExtractAnswer(phaseResults)
	if !ok {
		return
	}
	sources := ExtractSources(append(append([]*model.StepResult{}, accumulated...), phaseResults...))

	var confidence float64
	var scored bool
	if r.confidence != nil {
		r.events.EmitConfidenceScoringStarted(ctx, logID, plan.ID, ph.ID, ph.Name)
		c, err := r.confidence.ScoreConfidence(ctx, logID, plan, ph, answer, sources)
		if err != nil {
			r.events.EmitConfidenceScoringFailed(ctx, logID, plan.ID, ph.ID, ph.Name, err.Error())
			slog.Error("confidence scoring failed", "log_id", logID, "error", err)
		} else {
			confidence = c
			scored = true
			r.events.EmitConfidenceScoringCompleted(ctx, logID, plan.ID, ph.ID, ph.Name, confidence)
		}
	}

	if r.reflector != nil && scored && confidence < r.confidenceFloor {
		r.events.EmitReflectionIntegrationStarted(ctx, logID, plan.ID, ph.ID, confidence)
		revised, err := r.reflector.Reflect(ctx, logID, plan, ph, answer, sources, confidence)
		if err != nil {
			r.events.EmitReflectionIntegrationFailed(ctx, logID, plan.ID, ph.ID, err.Error())
			slog.Error("reflection failed", "log_id", logID, "error", err)
		} else if revised != "" {
			overwriteSynthesizeOutput(phaseResults, revised)
			r.events.EmitReflectionIntegrationCompleted(ctx, logID, plan.ID, ph.ID, confidence)
		}
	}
}

// overwriteSynthesizeOutput replaces the synthesize step's StepResult
// output with a reflection-revised answer, so the Orchestrator's final
// answer extraction (run after this post-hook returns) observes the
// revision rather than the pre-reflection text.
func overwriteSynthesizeOutput(results []*model.StepResult, revised string) {
	for _, r := range results {
		if r.Status == model.StepCompleted && r.ToolName == "synthesize" {
			r.Output = revised
			return
		}
	}
}

// ExtractAnswer finds the unique completed synthesize step and pulls its
// answer text out, per §4.5: output is either a string, or an object
// whose answer|text|content field holds the string.
func ExtractAnswer(results []*model.StepResult) (string, bool) {
	for _, r := range results {
		if r.Status != model.StepCompleted || r.ToolName != "synthesize" {
			continue
		}
		switch out := r.Output.(type) {
		case string:
			if out != "" {
				return out, true
			}
		case map[string]any:
			for _, key := range []string{"answer", "text", "content"} {
				if s, ok := out[key].(string); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

// ExtractSources walks results per §4.5: array-typed outputs contribute
// each item with a non-empty url and content; object outputs shaped like
// {url, content} contribute directly.
func ExtractSources(results []*model.StepResult) []model.Source {
	var sources []model.Source
	for _, r := range results {
		switch out := r.Output.(type) {
		case []any:
			for _, item := range out {
				if obj, ok := item.(map[string]any); ok {
					if src, ok := sourceFromObject(obj); ok {
						sources = append(sources, src)
					}
				}
			}
		case map[string]any:
			if src, ok := sourceFromObject(out); ok {
				sources = append(sources, src)
			}
		}
	}
	return sources
}

func sourceFromObject(obj map[string]any) (model.Source, bool) {
	url, _ := obj["url"].(string)
	content, _ := obj["content"].(string)
	if url == "" || content == "" {
		return model.Source{}, false
	}
	title, _ := obj["title"].(string)
	var relevance float64
	if v, ok := obj["relevance"].(float64); ok {
		relevance = v
	}
	return model.Source{URL: url, Title: title, Relevance: relevance}, true
}
