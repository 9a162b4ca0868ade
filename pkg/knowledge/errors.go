package knowledge

import "errors"

// ErrPersistence wraps a failed write to the research_results relation.
var ErrPersistence = errors.New("knowledge store persistence failed")
