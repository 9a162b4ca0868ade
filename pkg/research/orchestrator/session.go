// Package orchestrator is the Orchestrator / Session Controller (C10):
// it owns a session's entire lifecycle end to end, from plan creation
// through phase execution to final persistence. Grounded on the
// teacher's pkg/queue/executor.go RealSessionExecutor.Execute, which
// likewise owns one session's full run and reports terminal status back
// to a shared registry.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/evaluate"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
	"github.com/codeready-toolchain/research-agent/pkg/research/phase"
)

// PlanCreator is the slice of the Planner (C7) the Orchestrator drives.
type PlanCreator interface {
	CreatePlan(ctx context.Context, logID, query string) (*model.Plan, error)
}

// Evaluator is the slice of the Evaluation Coordinator (C8) the
// Orchestrator drives directly (plan and answer rubrics; retrieval
// evaluation is invoked by pkg/research/registry's post-hook instead).
type Evaluator interface {
	EvaluatePlan(ctx context.Context, logID string, plan *model.Plan, improve evaluate.PlanImprover) (*model.EvaluationResult, *model.Plan, error)
	EvaluateAnswer(ctx context.Context, logID string, plan *model.Plan, answer string, sources []model.Source, improve evaluate.AnswerImprover) (*model.EvaluationResult, string, error)
}

// PhaseDispatcher is the slice of the Phase Executor Registry (C5) that
// runs one phase and applies its post-hooks.
type PhaseDispatcher interface {
	Execute(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, query string, accumulated []*model.StepResult) phase.Result
}

// ResultSaver is the slice of the Knowledge Store (C11) used to persist
// the terminal ResearchResult.
type ResultSaver interface {
	Save(ctx context.Context, result *model.ResearchResult) error
}

// AnswerExtractor pulls the synthesized answer and sources out of a
// phase's StepResults plus everything accumulated before it. Declared
// locally to avoid importing pkg/research/registry's full surface — the
// Orchestrator only needs its two pure helper functions, which
// pkg/research/registry exposes as package-level funcs matching this
// shape.
type AnswerExtractor struct {
	ExtractAnswer  func(results []*model.StepResult) (string, bool)
	ExtractSources func(results []*model.StepResult) []model.Source
}

// Orchestrator is the C10 implementation.
type Orchestrator struct {
	planner   PlanCreator
	evaluator Evaluator
	phases    PhaseDispatcher
	extract   AnswerExtractor
	store     ResultSaver
	events    *events.Coordinator
	evalCfg   config.EvaluationConfig

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// sessionEntry is the registry row backing GET /research/sessions and
// §5's context.CancelFunc registry.
type sessionEntry struct {
	session *model.Session
	cancel  context.CancelFunc
}

// New wires an Orchestrator.
func New(planner PlanCreator, evaluator Evaluator, phases PhaseDispatcher, extract AnswerExtractor, store ResultSaver, eventCoordinator *events.Coordinator, evalCfg config.EvaluationConfig) *Orchestrator {
	return &Orchestrator{
		planner:   planner,
		evaluator: evaluator,
		phases:    phases,
		extract:   extract,
		store:     store,
		events:    eventCoordinator,
		evalCfg:   evalCfg,
		sessions:  make(map[string]*sessionEntry),
	}
}

// RunSession implements §4.10's runSession(query) -> {logId, result}. It
// returns the minted logId immediately; the session runs to completion
// on its own goroutine, exactly as §6's POST /research/query requires
// ("continues execution asynchronously"). The returned channel delivers
// the session once it reaches a terminal state, for callers (tests, the
// CLI) that want to wait on it.
func (o *Orchestrator) RunSession(query string) (logID string, done <-chan *model.Session) {
	logID = uuid.New().String()
	sessionCtx, cancel := context.WithCancel(context.Background())

	session := &model.Session{
		LogID:     logID,
		Query:     query,
		Status:    model.SessionPlanning,
		StartedAt: time.Now().UTC(),
	}

	o.mu.Lock()
	o.sessions[logID] = &sessionEntry{session: session, cancel: cancel}
	o.mu.Unlock()

	doneCh := make(chan *model.Session, 1)
	go func() {
		defer cancel()
		o.runSession(sessionCtx, logID, session)
		doneCh <- session
		close(doneCh)
	}()

	return logID, doneCh
}

// Session returns the in-memory session record for logID, if any.
func (o *Orchestrator) Session(logID string) (*model.Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entry, ok := o.sessions[logID]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// Sessions returns every known session, for GET /research/sessions.
func (o *Orchestrator) Sessions() []*model.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*model.Session, 0, len(o.sessions))
	for _, entry := range o.sessions {
		out = append(out, entry.session)
	}
	return out
}

// Cancel closes the session-wide cancellation signal for logID, per §5 —
// observable by tool executors as a best-effort stop request. Not yet
// exposed over HTTP (§4.10: "not yet part of the surface").
func (o *Orchestrator) Cancel(logID string) {
	o.mu.RLock()
	entry, ok := o.sessions[logID]
	o.mu.RUnlock()
	if ok {
		entry.cancel()
	}
}

// runSession drives §4.10 steps 1-6.
func (o *Orchestrator) runSession(ctx context.Context, logID string, session *model.Session) {
	o.events.EmitSessionStarted(ctx, logID, session.Query)

	plan, err := o.planAndEvaluate(ctx, logID, session.Query)
	if err != nil {
		o.fail(ctx, logID, session, err)
		return
	}
	session.Plan = plan

	session.Status = model.SessionExecuting
	answer, sources, blocked, err := o.executePhases(ctx, logID, plan, session.Query)
	if err != nil {
		o.fail(ctx, logID, session, err)
		return
	}
	if blocked {
		o.fail(ctx, logID, session, fmt.Errorf("answer evaluation blocked completion"))
		return
	}

	result := &model.ResearchResult{
		LogID:   logID,
		PlanID:  plan.ID,
		Query:   session.Query,
		Answer:  answer,
		Sources: sources,
	}
	if err := o.store.Save(ctx, result); err != nil {
		o.fail(ctx, logID, session, fmt.Errorf("persist result: %w", err))
		return
	}

	now := time.Now().UTC()
	session.Result = result
	session.Status = model.SessionCompleted
	session.FinishedAt = &now
	o.events.EmitSessionCompleted(ctx, logID)
}

// fail implements §4.10 step 6: emit session_failed, mark the session
// failed, and never persist a result.
func (o *Orchestrator) fail(ctx context.Context, logID string, session *model.Session, err error) {
	now := time.Now().UTC()
	session.Status = model.SessionFailed
	session.FinishedAt = &now
	o.events.EmitSessionFailed(ctx, logID, err.Error())
}

// planAndEvaluate implements §4.10 step 2: invoke the Planner, then run
// evaluatePlan and respect failAction. The Planner has no "replan given
// these scores" entry point distinct from CreatePlan itself, so the
// improver handed to evaluatePlan calls CreatePlan again; a plan that
// still fails under fail_action=block fails the session.
func (o *Orchestrator) planAndEvaluate(ctx context.Context, logID, query string) (*model.Plan, error) {
	plan, err := o.planner.CreatePlan(ctx, logID, query)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	replan := func(ctx context.Context, scores map[string]float64) (*model.Plan, error) {
		return o.planner.CreatePlan(ctx, logID, query)
	}
	evalResult, finalPlan, err := o.evaluator.EvaluatePlan(ctx, logID, plan, replan)
	if err != nil {
		return nil, fmt.Errorf("evaluate plan: %w", err)
	}

	if evalResult.Status == model.EvaluationFailed && o.evalCfg.Plan.FailAction == config.FailActionBlock {
		return nil, fmt.Errorf("plan evaluation failed: scores below threshold")
	}
	return finalPlan, nil
}
