package plan

import "errors"

var (
	// ErrLLMCall wraps a failed planning LLM call.
	ErrLLMCall = errors.New("planning llm call failed")

	// ErrInvalidPlan wraps a planning response that failed strict-JSON
	// parsing or schema validation (§7 ParseError).
	ErrInvalidPlan = errors.New("invalid plan response")
)
