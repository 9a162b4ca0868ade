// Package plan is the Planner (C7): it produces an initial ordered plan
// (phases + steps) from a query, either by asking the LLM directly with
// a bounded-iteration planning prompt or, when decomposition applies, by
// mapping the Query Decomposer's (C6) layered sub-queries onto a phase
// sequence with a terminal synthesis phase. Grounded on the teacher's
// pkg/agent/controller/iterating.go iteration-with-ceiling idiom.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/research-agent/pkg/config"
	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/decompose"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

const planningSystemPrompt = `You produce a research execution plan as strict JSON, no markdown fences, matching exactly:
{"phases": [{"name": string, "description": string, "steps": [{"toolName": string, "type": "tool_call"|"llm_call", "config": object, "dependsOn": [int, ...]}]}]}
"dependsOn" lists the 0-based indices of steps earlier in the same phase's "steps" array that this step depends on. Include at least one phase. The final phase should use the "synthesize" tool to produce the answer.`

// Decomposer is the slice of the Query Decomposer (C6) the Planner
// consults when decomposition is enabled. Declared locally so this
// package doesn't need to know about decompose's LLM wiring details
// beyond its public Decompose contract.
type Decomposer interface {
	Decompose(ctx context.Context, logID, query string) (*decompose.Result, error)
}

// Planner is the C7 implementation.
type Planner struct {
	client     llm.Client
	model      string
	decomposer Decomposer
	events     *events.Coordinator
	cfg        config.PlannerConfig
}

// New wires a Planner. decomposer may be nil, which behaves as if
// cfg.DecompositionEnabled were false.
func New(client llm.Client, modelName string, decomposer Decomposer, eventCoordinator *events.Coordinator, cfg config.PlannerConfig) *Planner {
	return &Planner{client: client, model: modelName, decomposer: decomposer, events: eventCoordinator, cfg: cfg}
}

// CreatePlan implements §4.7.
func (p *Planner) CreatePlan(ctx context.Context, logID, query string) (*model.Plan, error) {
	p.events.EmitPlanningStarted(ctx, logID)

	var phases []*model.Phase
	var err error

	if p.cfg.DecompositionEnabled && p.decomposer != nil {
		phases, err = p.planFromDecomposition(ctx, logID, query)
	}
	if phases == nil && err == nil {
		phases, err = p.planFromLLM(ctx, logID, query)
	}
	if err != nil {
		return nil, err
	}

	planID := uuid.New().String()
	planObj := &model.Plan{
		ID:        planID,
		Query:     query,
		Phases:    phases,
		Status:    model.PhasePending, // phases haven't started executing yet
		CreatedAt: time.Now().UTC(),
	}
	for _, ph := range phases {
		ph.PlanID = planID
		for _, s := range ph.Steps {
			s.PhaseID = ph.ID
		}
	}

	p.emitPlanCreated(ctx, logID, planObj)
	return planObj, nil
}

// planFromDecomposition maps the Decomposer's layered sub-queries onto a
// phase sequence (§4.7): each layer becomes one phase of search steps,
// with a terminal "final synthesis" phase appended. Returns (nil, nil)
// when the query classifies as simple, so the caller falls back to
// planFromLLM.
func (p *Planner) planFromDecomposition(ctx context.Context, logID, query string) ([]*model.Phase, error) {
	result, err := p.decomposer.Decompose(ctx, logID, query)
	if err != nil {
		return nil, fmt.Errorf("decompose for planning: %w", err)
	}
	if !result.IsComplex {
		return nil, nil
	}

	var phases []*model.Phase
	for i, layer := range result.Layers {
		var steps []*model.Step
		for j, sq := range layer {
			steps = append(steps, &model.Step{
				ID:           uuid.New().String(),
				Type:         model.StepTypeTool,
				ToolName:     "web_search",
				Config:       map[string]any{"query": sq.Text},
				Dependencies: map[string]struct{}{},
				Status:       model.StepPending,
				Order:        j + 1,
			})
		}
		phases = append(phases, &model.Phase{
			ID:     uuid.New().String(),
			Name:   fmt.Sprintf("Research Layer %d", i+1),
			Status: model.PhasePending,
			Steps:  steps,
			Order:  i + 1,
		})
	}

	synthesisStep := &model.Step{
		ID:           uuid.New().String(),
		Type:         model.StepTypeLLM,
		ToolName:     "synthesize",
		Config:       map[string]any{},
		Dependencies: map[string]struct{}{},
		Status:       model.StepPending,
		Order:        1,
	}
	phases = append(phases, &model.Phase{
		ID:     uuid.New().String(),
		Name:   "Final Synthesis",
		Status: model.PhasePending,
		Steps:  []*model.Step{synthesisStep},
		Order:  len(phases) + 1,
	})

	return phases, nil
}

// planFromLLM implements the bounded iteration over the LLM's planning
// prompt (§4.7): up to MaxPlanningIterations attempts, emitting
// planning_iteration before each, until a structurally valid plan comes
// back or the ceiling is hit.
func (p *Planner) planFromLLM(ctx context.Context, logID, query string) ([]*model.Phase, error) {
	max := p.cfg.MaxPlanningIterations
	if max < 1 {
		max = 1
	}

	var lastErr error
	for i := 1; i <= max; i++ {
		p.events.EmitPlanningIteration(ctx, logID, i, max)

		phases, err := p.requestPlan(ctx, query)
		if err == nil {
			return phases, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("planning exhausted %d iterations: %w", max, lastErr)
}

type wireStep struct {
	ToolName  string         `json:"toolName"`
	Type      string         `json:"type"`
	Config    map[string]any `json:"config"`
	DependsOn []int          `json:"dependsOn"`
}

type wirePhase struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Steps       []wireStep `json:"steps"`
}

type wirePlanResponse struct {
	Phases []wirePhase `json:"phases"`
}

func (p *Planner) requestPlan(ctx context.Context, query string) ([]*model.Phase, error) {
	collected, err := llm.CollectText(ctx, p.client, &llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: planningSystemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMCall, err)
	}

	raw := stripMarkdownFences(collected.Text)
	var wire wirePlanResponse
	if jsonErr := json.Unmarshal([]byte(raw), &wire); jsonErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, jsonErr)
	}
	if err := validateWirePlan(wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	return mintPhases(wire), nil
}

func validateWirePlan(wire wirePlanResponse) error {
	if len(wire.Phases) == 0 {
		return fmt.Errorf("plan has no phases")
	}
	for pi, ph := range wire.Phases {
		if strings.TrimSpace(ph.Name) == "" {
			return fmt.Errorf("phase %d has empty name", pi)
		}
		for si, s := range ph.Steps {
			if s.ToolName == "" {
				return fmt.Errorf("phase %d step %d has empty toolName", pi, si)
			}
			switch model.StepType(s.Type) {
			case model.StepTypeTool, model.StepTypeLLM:
			default:
				return fmt.Errorf("phase %d step %d has unknown type %q", pi, si, s.Type)
			}
			for _, dep := range s.DependsOn {
				if dep < 0 || dep >= len(ph.Steps) {
					return fmt.Errorf("phase %d step %d depends on out-of-range index %d", pi, si, dep)
				}
			}
		}
	}
	return nil
}

// mintPhases assigns local identifiers and rewrites index-based
// dependsOn references to the corresponding step IDs, per the Design
// Note on normalizing dependency references once during parsing.
func mintPhases(wire wirePlanResponse) []*model.Phase {
	phases := make([]*model.Phase, 0, len(wire.Phases))
	for pi, ph := range wire.Phases {
		ids := make([]string, len(ph.Steps))
		for si := range ph.Steps {
			ids[si] = uuid.New().String()
		}

		steps := make([]*model.Step, 0, len(ph.Steps))
		for si, s := range ph.Steps {
			deps := make(map[string]struct{}, len(s.DependsOn))
			for _, dep := range s.DependsOn {
				deps[ids[dep]] = struct{}{}
			}
			steps = append(steps, &model.Step{
				ID:           ids[si],
				Type:         model.StepType(s.Type),
				ToolName:     s.ToolName,
				Config:       s.Config,
				Dependencies: deps,
				Status:       model.StepPending,
				Order:        si + 1,
			})
		}

		phases = append(phases, &model.Phase{
			ID:          uuid.New().String(),
			Name:        ph.Name,
			Description: ph.Description,
			Status:      model.PhasePending,
			Steps:       steps,
			Order:       pi + 1,
		})
	}
	return phases
}

// emitPlanCreated emits plan_created plus phase_added/step_added for
// every element, per §4.7.
func (p *Planner) emitPlanCreated(ctx context.Context, logID string, planObj *model.Plan) {
	summary := make([]events.PlanCreatedPhase, 0, len(planObj.Phases))
	for _, ph := range planObj.Phases {
		summary = append(summary, events.PlanCreatedPhase{
			ID:    ph.ID,
			Name:  ph.Name,
			Order: ph.Order,
			Steps: len(ph.Steps),
		})
	}

	p.events.EmitPlanCreated(ctx, logID, events.PlanCreatedPayload{
		PlanID:      planObj.ID,
		Query:       planObj.Query,
		TotalPhases: len(planObj.Phases),
		Phases:      summary,
	})

	for _, ph := range planObj.Phases {
		p.events.EmitPhaseAdded(ctx, logID, planObj.ID, ph.ID, ph.Name)
		for _, s := range ph.Steps {
			p.events.EmitStepAdded(ctx, logID, planObj.ID, ph.ID, s.ID, s.ToolName)
		}
	}
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
