// Package stepconfig is the Step Configuration component (C3): it fills
// in defaults for steps that weren't given an explicit config and builds
// the synthesis context a "synthesize" step sees from everything computed
// so far.
package stepconfig

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/research-agent/pkg/research/model"
)

const (
	defaultSearchMaxResults = 5

	defaultSystemPrompt = "You are a research assistant. Synthesize a clear, well-supported answer from the provided research context."
	defaultPrompt       = "Using the research context below, answer the query as completely and accurately as possible."
)

// GetDefaultConfig supplies a tool's default config when a step declares
// none. plan may be nil (e.g. during decomposition before a Plan exists).
func GetDefaultConfig(toolName string, plan *model.Plan, phaseResults []*model.StepResult) map[string]any {
	switch toolName {
	case "web_search":
		query := "general research query"
		if plan != nil {
			query = plan.Query
		}
		return map[string]any{"query": query, "maxResults": defaultSearchMaxResults}

	case "web_fetch":
		if url, ok := firstResultURL(phaseResults); ok {
			return map[string]any{"url": url}
		}
		return map[string]any{}

	default:
		return map[string]any{}
	}
}

// firstResultURL walks phaseResults in order and returns the url field of
// the first item in the first array-typed output that has one.
func firstResultURL(phaseResults []*model.StepResult) (string, bool) {
	for _, r := range phaseResults {
		items, ok := r.Output.([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if url, ok := obj["url"].(string); ok && url != "" {
				return url, true
			}
		}
	}
	return "", false
}

// EnrichSynthesizeStep mutates step.Config in place so it satisfies the
// guarantees in §4.3: query, context, systemPrompt, and prompt are all
// present, with any pre-existing keys preserved.
func EnrichSynthesizeStep(step *model.Step, plan *model.Plan, accumulatedResults []*model.StepResult) {
	if step.Config == nil {
		step.Config = map[string]any{}
	}

	if _, ok := step.Config["query"]; !ok {
		if plan != nil {
			step.Config["query"] = plan.Query
		} else {
			step.Config["query"] = ""
		}
	}

	if _, ok := step.Config["context"]; !ok {
		step.Config["context"] = BuildSynthesisContext(accumulatedResults)
	}

	if v, ok := step.Config["systemPrompt"].(string); !ok || v == "" {
		step.Config["systemPrompt"] = defaultSystemPrompt
	}
	if v, ok := step.Config["prompt"].(string); !ok || v == "" {
		step.Config["prompt"] = defaultPrompt
	}
}

const fetchedContentSeparator = "\n---\n"

// BuildSynthesisContext assembles the §4.3a context string from
// accumulated step results: a "Search Results" section built from every
// completed result whose output is an ordered sequence, followed by a
// "Fetched Content" section built from every completed result whose
// output is a plain string. Deterministic given the same input slice.
func BuildSynthesisContext(accumulatedResults []*model.StepResult) string {
	var searchItems []any
	var fetchedTexts []string

	for _, r := range accumulatedResults {
		if r.Status != model.StepCompleted {
			continue
		}
		switch out := r.Output.(type) {
		case []any:
			searchItems = append(searchItems, out...)
		case string:
			if out != "" {
				fetchedTexts = append(fetchedTexts, out)
			}
		}
	}

	var sections []string
	if len(searchItems) > 0 {
		sections = append(sections, "Search Results:\n"+renderSequence(searchItems))
	}
	if len(fetchedTexts) > 0 {
		sections = append(sections, "Fetched Content:\n"+strings.Join(fetchedTexts, fetchedContentSeparator))
	}
	return strings.Join(sections, "\n\n")
}

// renderSequence serializes a slice of (typically map-shaped) search
// result items as simple structured text, one item per line.
func renderSequence(items []any) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		if obj, ok := item.(map[string]any); ok {
			title, _ := obj["title"].(string)
			url, _ := obj["url"].(string)
			snippet, _ := obj["content"].(string)
			if snippet == "" {
				snippet, _ = obj["snippet"].(string)
			}
			fmt.Fprintf(&b, "- %s (%s): %s", title, url, snippet)
		} else {
			fmt.Fprintf(&b, "- %v", item)
		}
	}
	return b.String()
}
