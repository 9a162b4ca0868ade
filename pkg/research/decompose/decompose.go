// Package decompose is the Query Decomposer (C6): classifies a query as
// complex or simple and, if complex, splits it into dependency-ordered
// sub-queries via a single LLM call with strict JSON output.
package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/research-agent/pkg/events"
	"github.com/codeready-toolchain/research-agent/pkg/llm"
	"github.com/codeready-toolchain/research-agent/pkg/research/layering"
	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

const (
	minSubQueries = 2
	maxSubQueries = 5
)

const systemPrompt = `You classify a research query as simple or complex. If complex, split it into 2-5 sub-queries.
Respond with strict JSON only, no markdown fences, matching exactly:
{"isComplex": boolean, "subQueries": [{"order": int, "text": string, "type": "factual"|"analytical"|"comparative"|"temporal", "priority": "high"|"medium"|"low", "estimatedComplexity": int (1-5), "dependencies": [int, ...]}]}
"dependencies" lists the "order" numbers of sub-queries that must complete first. Omit "subQueries" or leave it empty when isComplex is false.`

type wireSubQuery struct {
	Order               int    `json:"order"`
	Text                string `json:"text"`
	Type                string `json:"type"`
	Priority            string `json:"priority"`
	EstimatedComplexity int    `json:"estimatedComplexity"`
	Dependencies        []int  `json:"dependencies"`
}

type wireResponse struct {
	IsComplex  bool           `json:"isComplex"`
	SubQueries []wireSubQuery `json:"subQueries"`
}

// Result is what Decompose returns for a complex query: the minted
// sub-queries plus their dependency-layered execution order (§4.4a).
type Result struct {
	IsComplex  bool
	SubQueries []*model.SubQuery
	Layers     [][]*model.SubQuery
}

// Decomposer wraps an LLM client bound to the model used for
// classification/decomposition calls.
type Decomposer struct {
	client llm.Client
	model  string
	events *events.Coordinator
}

// NewDecomposer wires a Query Decomposer.
func NewDecomposer(client llm.Client, modelName string, eventCoordinator *events.Coordinator) *Decomposer {
	return &Decomposer{client: client, model: modelName, events: eventCoordinator}
}

// Decompose implements §4.6. logID may be empty for callers invoking the
// decomposer outside a tracked session.
func (d *Decomposer) Decompose(ctx context.Context, logID, query string) (*Result, error) {
	start := time.Now()
	d.events.EmitDecompositionStarted(ctx, logID, query)

	collected, err := llm.CollectText(ctx, d.client, &llm.ChatRequest{
		Model: d.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: query},
		},
	})
	if err != nil {
		return nil, &LLMError{Query: query, Err: fmt.Errorf("%w: %v", ErrLLMCall, err)}
	}

	raw := stripMarkdownFences(collected.Text)

	var wire wireResponse
	if jsonErr := json.Unmarshal([]byte(raw), &wire); jsonErr != nil {
		return nil, &ParseError{Query: query, Raw: raw, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, jsonErr)}
	}

	if !wire.IsComplex || len(wire.SubQueries) == 0 {
		d.events.EmitDecompositionCompleted(ctx, logID, events.DecompositionCompletedPayload{
			IsComplex:       false,
			SubQueryCount:   0,
			ExecutionPhases: 0,
			DurationMs:      time.Since(start).Milliseconds(),
		})
		return &Result{IsComplex: false}, nil
	}

	if err := validateWire(wire.SubQueries); err != nil {
		return nil, &ParseError{Query: query, Raw: raw, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}

	if cycle := detectCycle(wire.SubQueries); len(cycle) > 0 {
		return nil, &CircularDependencyError{Orders: cycle}
	}

	subQueries := mintSubQueries(wire.SubQueries)

	for _, sq := range subQueries {
		d.events.EmitSubQueryIdentified(ctx, logID, events.SubQueryIdentifiedPayload{
			SubQueryID: sq.ID,
			Text:       sq.Text,
			Type:       string(sq.Type),
			Priority:   string(sq.Priority),
			Complexity: sq.EstimatedComplexity,
		})
	}

	layers := layering.Layer(subQueries,
		func(sq *model.SubQuery) string { return sq.ID },
		func(sq *model.SubQuery) map[string]struct{} { return sq.Dependencies },
	)

	d.events.EmitDecompositionCompleted(ctx, logID, events.DecompositionCompletedPayload{
		IsComplex:       true,
		SubQueryCount:   len(subQueries),
		ExecutionPhases: len(layers),
		DurationMs:      time.Since(start).Milliseconds(),
	})

	return &Result{IsComplex: true, SubQueries: subQueries, Layers: layers}, nil
}

// stripMarkdownFences removes a leading/trailing ```json ... ``` or ``` ...
// ``` fence, if present, leaving the raw JSON body.
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

func validSubQueryType(t string) bool {
	switch model.SubQueryType(t) {
	case model.SubQueryFactual, model.SubQueryAnalytical, model.SubQueryComparative, model.SubQueryTemporal:
		return true
	}
	return false
}

func validPriority(p string) bool {
	switch model.SubQueryPriority(p) {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return true
	}
	return false
}

// validateWire enforces §4.6's semantic validation rules beyond what JSON
// unmarshaling alone checks.
func validateWire(subQueries []wireSubQuery) error {
	if len(subQueries) < minSubQueries || len(subQueries) > maxSubQueries {
		return fmt.Errorf("expected %d-%d sub-queries, got %d", minSubQueries, maxSubQueries, len(subQueries))
	}
	orders := make(map[int]struct{}, len(subQueries))
	for _, sq := range subQueries {
		if sq.Text == "" {
			return fmt.Errorf("sub-query order %d has empty text", sq.Order)
		}
		if !validSubQueryType(sq.Type) {
			return fmt.Errorf("sub-query order %d has unknown type %q", sq.Order, sq.Type)
		}
		if !validPriority(sq.Priority) {
			return fmt.Errorf("sub-query order %d has unknown priority %q", sq.Order, sq.Priority)
		}
		if sq.EstimatedComplexity < 1 || sq.EstimatedComplexity > 5 {
			return fmt.Errorf("sub-query order %d has estimatedComplexity %d outside 1-5", sq.Order, sq.EstimatedComplexity)
		}
		orders[sq.Order] = struct{}{}
	}
	for _, sq := range subQueries {
		for _, dep := range sq.Dependencies {
			if _, ok := orders[dep]; !ok {
				return fmt.Errorf("sub-query order %d depends on unknown order %d", sq.Order, dep)
			}
		}
	}
	return nil
}

// detectCycle runs a DFS over the order-number dependency graph and
// returns the orders on a cycle, if any, or nil if the graph is acyclic.
func detectCycle(subQueries []wireSubQuery) []int {
	depsByOrder := make(map[int][]int, len(subQueries))
	for _, sq := range subQueries {
		depsByOrder[sq.Order] = sq.Dependencies
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[int]int, len(subQueries))
	var path []int

	var visit func(order int) []int
	visit = func(order int) []int {
		switch state[order] {
		case done:
			return nil
		case visiting:
			return append(append([]int{}, path...), order)
		}
		state[order] = visiting
		path = append(path, order)
		for _, dep := range depsByOrder[order] {
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		state[order] = done
		return nil
	}

	for _, sq := range subQueries {
		if state[sq.Order] == unvisited {
			if cycle := visit(sq.Order); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// mintSubQueries assigns local identifiers (ignoring any the LLM may have
// emitted) and rewrites order-number dependencies to those identifiers.
func mintSubQueries(wire []wireSubQuery) []*model.SubQuery {
	idByOrder := make(map[int]string, len(wire))
	for _, sq := range wire {
		idByOrder[sq.Order] = uuid.New().String()
	}

	result := make([]*model.SubQuery, 0, len(wire))
	for _, sq := range wire {
		deps := make(map[string]struct{}, len(sq.Dependencies))
		for _, dep := range sq.Dependencies {
			deps[idByOrder[dep]] = struct{}{}
		}
		result = append(result, &model.SubQuery{
			ID:                  idByOrder[sq.Order],
			Text:                sq.Text,
			Order:               sq.Order,
			Dependencies:        deps,
			Type:                model.SubQueryType(sq.Type),
			Priority:            model.SubQueryPriority(sq.Priority),
			EstimatedComplexity: sq.EstimatedComplexity,
		})
	}
	return result
}
