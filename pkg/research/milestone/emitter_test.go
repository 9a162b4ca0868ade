package milestone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

func TestClassifyPhase(t *testing.T) {
	cases := map[string]Stage{
		"Initial Search":    StageSearch,
		"Query Expansion":   StageSearch,
		"Content Gathering": StageFetch,
		"Fetch Sources":     StageFetch,
		"Answer Synthesis":  StageSynthesis,
		"Generate Response": StageSynthesis,
		"Something Else":    StageSearch,
	}
	for name, want := range cases {
		assert.Equal(t, want, ClassifyPhase(name), name)
	}
}

func TestEmitMilestonesForPhase_EmitsAllButLastTemplate(t *testing.T) {
	coordinator := events.NewCoordinator(nil)
	sub := coordinator.Subscribe("log-1")
	defer coordinator.Unsubscribe(sub)

	emitter := NewEmitter(coordinator)
	phase := &model.Phase{ID: "phase-1", Name: "Initial Search", Steps: []*model.Step{{}, {}}}

	emitter.EmitMilestonesForPhase(context.Background(), phase, "log-1", "quantum computing")

	want := len(stageTemplates[StageSearch]) - 1
	for i := 0; i < want; i++ {
		evt := <-sub.Events()
		assert.Equal(t, events.TypeMilestoneStarted, evt.EventType)
		payload := evt.Data.(events.MilestonePayload)
		assert.Contains(t, payload.Description, "quantum computing")
	}
}

func TestEmitPhaseCompletion_EmitsReservedTemplate(t *testing.T) {
	coordinator := events.NewCoordinator(nil)
	sub := coordinator.Subscribe("log-1")
	defer coordinator.Unsubscribe(sub)

	emitter := NewEmitter(coordinator)
	phase := &model.Phase{ID: "phase-1", Name: "Fetch Content", Steps: []*model.Step{{}}}

	emitter.EmitPhaseCompletion(context.Background(), phase, "log-1")

	evt := <-sub.Events()
	assert.Equal(t, events.TypeMilestoneCompleted, evt.EventType)
	payload := evt.Data.(events.MilestonePayload)
	assert.Equal(t, 1.0, payload.Progress)
	assert.Equal(t, "completed", payload.Status)
}

func TestInterpolate_SubstitutesEveryKey(t *testing.T) {
	got := interpolate("Running {stepCount} steps for {query}", map[string]any{"stepCount": 3, "query": "go"})
	require.Equal(t, "Running 3 steps for go", got)
}
