package evaluate

import "errors"

// ErrInvalidScoreResponse is raised when an evaluator role's response did
// not satisfy the declared strict-JSON schema — a ParseError per §7,
// surfaced to the caller so EvaluatePlan/EvaluateAnswer's bounded loop
// treats the attempt as a hard failure.
var ErrInvalidScoreResponse = errors.New("invalid evaluator score response")

// ErrRoleTimeout is raised when a single evaluator-role call exceeds its
// RoleTimeoutSeconds deadline (§5). run treats this as a failed scoring
// attempt that feeds into the rubric aggregate, not a hard evaluation
// failure.
var ErrRoleTimeout = errors.New("evaluator role timed out")
