package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/evaluate"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
	"github.com/codeready-toolchain/research-agent/pkg/research/phase"
)

type fakePlanner struct {
	plan *model.Plan
	err  error
}

func (f *fakePlanner) CreatePlan(ctx context.Context, logID, query string) (*model.Plan, error) {
	return f.plan, f.err
}

type fakeEvaluator struct {
	planStatus   model.EvaluationStatus
	answerStatus model.EvaluationStatus
	finalAnswer  string
}

func (f *fakeEvaluator) EvaluatePlan(ctx context.Context, logID string, plan *model.Plan, improve evaluate.PlanImprover) (*model.EvaluationResult, *model.Plan, error) {
	return &model.EvaluationResult{Phase: model.EvaluationPlan, Status: f.planStatus}, plan, nil
}

func (f *fakeEvaluator) EvaluateAnswer(ctx context.Context, logID string, plan *model.Plan, answer string, sources []model.Source, improve evaluate.AnswerImprover) (*model.EvaluationResult, string, error) {
	final := f.finalAnswer
	if final == "" {
		final = answer
	}
	return &model.EvaluationResult{Phase: model.EvaluationAnswer, Status: f.answerStatus}, final, nil
}

type fakePhases struct {
	results map[string]phase.Result
}

func (f *fakePhases) Execute(ctx context.Context, logID string, plan *model.Plan, ph *model.Phase, query string, accumulated []*model.StepResult) phase.Result {
	return f.results[ph.ID]
}

type fakeStore struct {
	saved *model.ResearchResult
	err   error
}

func (f *fakeStore) Save(ctx context.Context, result *model.ResearchResult) error {
	f.saved = result
	return f.err
}

func extractAnswer(results []*model.StepResult) (string, bool) {
	for _, r := range results {
		if r.ToolName == "synthesize" {
			if s, ok := r.Output.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func extractSources(results []*model.StepResult) []model.Source {
	return nil
}

func testPlan() *model.Plan {
	return &model.Plan{
		ID:    "plan-1",
		Query: "q",
		Phases: []*model.Phase{
			{ID: "ph-search", Name: "Search"},
			{ID: "ph-synth", Name: "Final Synthesis"},
		},
	}
}

func newOrchestrator(t *testing.T, planner *fakePlanner, evaluator *fakeEvaluator, phases *fakePhases, store *fakeStore) *Orchestrator {
	t.Helper()
	extract := AnswerExtractor{ExtractAnswer: extractAnswer, ExtractSources: extractSources}
	return New(planner, evaluator, phases, extract, store, events.NewCoordinator(nil), config.EvaluationConfig{
		Plan:   config.RubricConfig{FailAction: config.FailActionWarn},
		Answer: config.RubricConfig{FailAction: config.FailActionWarn},
	})
}

func waitDone(t *testing.T, done <-chan *model.Session) *model.Session {
	t.Helper()
	select {
	case s := <-done:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("session did not complete in time")
		return nil
	}
}

func TestRunSession_CompletesAndPersistsResult(t *testing.T) {
	plan := testPlan()
	planner := &fakePlanner{plan: plan}
	evaluator := &fakeEvaluator{planStatus: model.EvaluationPassed, answerStatus: model.EvaluationPassed}
	phases := &fakePhases{results: map[string]phase.Result{
		"ph-search": {Status: model.PhaseCompleted, StepResults: []*model.StepResult{{StepID: "s1", ToolName: "web_search"}}},
		"ph-synth":  {Status: model.PhaseCompleted, StepResults: []*model.StepResult{{StepID: "s2", ToolName: "synthesize", Output: "final answer"}}},
	}}
	store := &fakeStore{}
	o := newOrchestrator(t, planner, evaluator, phases, store)

	logID, done := o.RunSession("what is x")
	require.NotEmpty(t, logID)
	session := waitDone(t, done)

	assert.Equal(t, model.SessionCompleted, session.Status)
	require.NotNil(t, session.Result)
	assert.Equal(t, "final answer", session.Result.Answer)
	require.NotNil(t, store.saved)
	assert.Equal(t, "final answer", store.saved.Answer)
}

func TestRunSession_PhaseFailureFailsSessionWithoutPersisting(t *testing.T) {
	plan := testPlan()
	planner := &fakePlanner{plan: plan}
	evaluator := &fakeEvaluator{planStatus: model.EvaluationPassed}
	phases := &fakePhases{results: map[string]phase.Result{
		"ph-search": {Status: model.PhaseFailed, Error: "search blew up"},
	}}
	store := &fakeStore{}
	o := newOrchestrator(t, planner, evaluator, phases, store)

	_, done := o.RunSession("q")
	session := waitDone(t, done)

	assert.Equal(t, model.SessionFailed, session.Status)
	assert.Nil(t, session.Result)
	assert.Nil(t, store.saved)
}

func TestRunSession_AnswerEvaluationBlockFailsSession(t *testing.T) {
	plan := testPlan()
	planner := &fakePlanner{plan: plan}
	evaluator := &fakeEvaluator{planStatus: model.EvaluationPassed, answerStatus: model.EvaluationFailed}
	phases := &fakePhases{results: map[string]phase.Result{
		"ph-search": {Status: model.PhaseCompleted, StepResults: []*model.StepResult{{StepID: "s1", ToolName: "web_search"}}},
		"ph-synth":  {Status: model.PhaseCompleted, StepResults: []*model.StepResult{{StepID: "s2", ToolName: "synthesize", Output: "final answer"}}},
	}}
	store := &fakeStore{}
	extract := AnswerExtractor{ExtractAnswer: extractAnswer, ExtractSources: extractSources}
	o := New(planner, evaluator, phases, extract, store, events.NewCoordinator(nil), config.EvaluationConfig{
		Plan:   config.RubricConfig{FailAction: config.FailActionWarn},
		Answer: config.RubricConfig{FailAction: config.FailActionBlock},
	})

	_, done := o.RunSession("q")
	session := waitDone(t, done)

	assert.Equal(t, model.SessionFailed, session.Status)
	assert.Nil(t, store.saved)
}

func TestRunSession_PlanEvaluationBlockFailsSession(t *testing.T) {
	plan := testPlan()
	planner := &fakePlanner{plan: plan}
	evaluator := &fakeEvaluator{planStatus: model.EvaluationFailed}
	phases := &fakePhases{}
	store := &fakeStore{}
	extract := AnswerExtractor{ExtractAnswer: extractAnswer, ExtractSources: extractSources}
	o := New(planner, evaluator, phases, extract, store, events.NewCoordinator(nil), config.EvaluationConfig{
		Plan: config.RubricConfig{FailAction: config.FailActionBlock},
	})

	_, done := o.RunSession("q")
	session := waitDone(t, done)

	assert.Equal(t, model.SessionFailed, session.Status)
}

func TestSessions_ListsAllKnownSessions(t *testing.T) {
	plan := testPlan()
	planner := &fakePlanner{plan: plan}
	evaluator := &fakeEvaluator{planStatus: model.EvaluationPassed, answerStatus: model.EvaluationPassed}
	phases := &fakePhases{results: map[string]phase.Result{
		"ph-search": {Status: model.PhaseCompleted, StepResults: []*model.StepResult{{StepID: "s1", ToolName: "web_search"}}},
		"ph-synth":  {Status: model.PhaseCompleted, StepResults: []*model.StepResult{{StepID: "s2", ToolName: "synthesize", Output: "final answer"}}},
	}}
	o := newOrchestrator(t, planner, evaluator, phases, &fakeStore{})

	logID, done := o.RunSession("q")
	waitDone(t, done)

	sessions := o.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, logID, sessions[0].LogID)

	session, ok := o.Session(logID)
	require.True(t, ok)
	assert.Equal(t, logID, session.LogID)
}
