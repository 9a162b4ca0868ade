// Package layering implements the dependency-layering algorithm used by
// both the Phase Executor (§4.4a, over steps) and the Query Decomposer
// (§4.6, over sub-queries): the same construction, generalized over the
// item type so it isn't duplicated.
package layering

// Layer partitions items into an ordered sequence of batches such that
// items within a batch are mutually independent and every item in batch k
// has all its dependencies (as returned by deps) in batches < k.
//
// If a cycle is detected — some remaining items never become eligible —
// the remaining items are emitted as one final batch in declaration
// order, matching the cycle-recovery behavior required by §4.4a and §7.
func Layer[T any](items []T, id func(T) string, deps func(T) map[string]struct{}) [][]T {
	remaining := make([]T, len(items))
	copy(remaining, items)

	completed := make(map[string]struct{}, len(items))
	var batches [][]T

	for len(remaining) > 0 {
		var batch []T
		var next []T

		for _, item := range remaining {
			if allSatisfied(deps(item), completed) {
				batch = append(batch, item)
			} else {
				next = append(next, item)
			}
		}

		if len(batch) == 0 {
			// Cycle, or a dependency outside this item set: recover by
			// running everything left as a single final batch.
			batches = append(batches, remaining)
			break
		}

		for _, item := range batch {
			completed[id(item)] = struct{}{}
		}
		batches = append(batches, batch)
		remaining = next
	}

	return batches
}

func allSatisfied(deps map[string]struct{}, completed map[string]struct{}) bool {
	for d := range deps {
		if _, ok := completed[d]; !ok {
			return false
		}
	}
	return true
}
