package evaluate

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

// renderPlan serializes a Plan into the simple structured text an
// evaluator role scores for completeness/feasibility.
func renderPlan(plan *model.Plan) string {
	if plan == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", plan.Query)
	for _, ph := range plan.Phases {
		fmt.Fprintf(&b, "Phase %d: %s (%d steps)\n", ph.Order, ph.Name, len(ph.Steps))
		for _, s := range ph.Steps {
			fmt.Fprintf(&b, "  - %s (%s)\n", s.ToolName, s.Type)
		}
	}
	return b.String()
}

// renderResults serializes a batch of StepResults for the retrieval
// rubric's relevance/coverage roles.
func renderResults(results []*model.StepResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s] %s: %v\n", r.Status, r.ToolName, r.Output)
	}
	return b.String()
}

// renderAnswer serializes the synthesized answer and its sources for the
// answer rubric's accuracy/groundedness/clarity roles.
func renderAnswer(answer string, sources []model.Source) string {
	var b strings.Builder
	b.WriteString("Answer:\n")
	b.WriteString(answer)
	b.WriteString("\n\nSources:\n")
	for _, src := range sources {
		fmt.Fprintf(&b, "- %s (%s)\n", src.Title, src.URL)
	}
	return b.String()
}
