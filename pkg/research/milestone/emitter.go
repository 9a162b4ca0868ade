// Package milestone is the Milestone Emitter (C9): it turns a phase's
// inferred stage into a fixed sequence of human-readable progress events,
// independent of what tool executors actually produce.
package milestone

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// Stage is the coarse phase classification shared with the Phase Executor
// Registry (§4.5): the same substring rules decide both.
type Stage int

const (
	StageSearch Stage = iota + 1
	StageFetch
	StageSynthesis
)

// template is one step in a stage's fixed milestone sequence.
type template struct {
	id          string
	description string
	text        string
}

// stageTemplates holds each stage's fixed sequence. The last template in
// each sequence is reserved for phase completion (§4.9) and is never sent
// by EmitMilestonesForPhase.
var stageTemplates = map[Stage][]template{
	StageSearch: {
		{id: "search.begin", description: "Starting search", text: "Searching for information on {query}"},
		{id: "search.running", description: "Running queries", text: "Running {stepCount} search step(s) for {query}"},
		{id: "search.done", description: "Search complete", text: "Collected search results for {query}"},
	},
	StageFetch: {
		{id: "fetch.begin", description: "Starting fetch", text: "Fetching content related to {query}"},
		{id: "fetch.running", description: "Fetching pages", text: "Retrieving {stepCount} source(s)"},
		{id: "fetch.done", description: "Fetch complete", text: "Gathered source content for {query}"},
	},
	StageSynthesis: {
		{id: "synthesis.begin", description: "Starting synthesis", text: "Synthesizing an answer for {query}"},
		{id: "synthesis.running", description: "Drafting answer", text: "Composing answer from {stepCount} result(s)"},
		{id: "synthesis.done", description: "Synthesis complete", text: "Finished synthesizing the answer"},
	},
}

// ClassifyPhase infers a stage from phase.name using the same
// case-insensitive substring rules as the Phase Executor Registry (§4.5).
// Phases matching none of the known substrings default to StageSearch,
// the first stage in the pipeline.
func ClassifyPhase(phaseName string) Stage {
	name := strings.ToLower(phaseName)
	switch {
	case strings.Contains(name, "search"), strings.Contains(name, "query"), strings.Contains(name, "initial"):
		return StageSearch
	case strings.Contains(name, "fetch"), strings.Contains(name, "gather"), strings.Contains(name, "content"):
		return StageFetch
	case strings.Contains(name, "synth"), strings.Contains(name, "answer"), strings.Contains(name, "generat"):
		return StageSynthesis
	default:
		return StageSearch
	}
}

// Emitter is the C9 implementation, wired into the Phase Executor through
// its locally declared MilestoneEmitter interface.
type Emitter struct {
	events *events.Coordinator
}

// NewEmitter wires a Milestone Emitter against a shared event coordinator.
func NewEmitter(eventCoordinator *events.Coordinator) *Emitter {
	return &Emitter{events: eventCoordinator}
}

// EmitMilestonesForPhase emits milestone_started for every template in the
// phase's stage except the last, which is reserved for EmitPhaseCompletion.
func (e *Emitter) EmitMilestonesForPhase(ctx context.Context, phase *model.Phase, logID, query string) {
	stage := ClassifyPhase(phase.Name)
	templates := stageTemplates[stage]
	if len(templates) == 0 {
		return
	}

	data := templateData(phase, query)
	preparatory := templates[:len(templates)-1]

	for i, tmpl := range preparatory {
		e.events.EmitMilestoneStarted(ctx, logID, events.MilestonePayload{
			MilestoneID:  fmt.Sprintf("%s-%s", phase.ID, tmpl.id),
			TemplateID:   tmpl.id,
			Stage:        int(stage),
			Description:  interpolate(tmpl.text, data),
			Template:     tmpl.text,
			TemplateData: data,
			Progress:     float64(i+1) / float64(len(templates)),
			Status:       "in_progress",
		})
	}
}

// EmitPhaseCompletion emits the final milestone_completed reserved for a
// phase's stage, signaling the stage is done.
func (e *Emitter) EmitPhaseCompletion(ctx context.Context, phase *model.Phase, logID string) {
	stage := ClassifyPhase(phase.Name)
	templates := stageTemplates[stage]
	if len(templates) == 0 {
		return
	}

	tmpl := templates[len(templates)-1]
	data := templateData(phase, "")

	e.events.EmitMilestoneCompleted(ctx, logID, events.MilestonePayload{
		MilestoneID:  fmt.Sprintf("%s-%s", phase.ID, tmpl.id),
		TemplateID:   tmpl.id,
		Stage:        int(stage),
		Description:  interpolate(tmpl.text, data),
		Template:     tmpl.text,
		TemplateData: data,
		Progress:     1.0,
		Status:       "completed",
	})
}

func templateData(phase *model.Phase, query string) map[string]any {
	return map[string]any{
		"query":     query,
		"stepCount": len(phase.Steps),
		"phase":     phase.Name,
	}
}

// interpolate substitutes every {key} in text with its string-rendered
// value from data, per §4.9.
func interpolate(text string, data map[string]any) string {
	for key, value := range data {
		text = strings.ReplaceAll(text, "{"+key+"}", fmt.Sprint(value))
	}
	return text
}
