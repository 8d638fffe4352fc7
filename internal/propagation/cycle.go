package propagation

import "github.com/adi-muresan/circuit-planner/internal/model"

// HasUpstream reports whether candidate is a transitive source of
// downstream. The sentinel has no ancestors.
func HasUpstream(w model.Wiring, downstream, candidate int) bool {
	if downstream == model.SentinelID || !model.IsUnit(downstream) {
		return false
	}

	visited := make([]bool, model.OutputCount)
	visited[downstream] = true
	stack := []int{downstream}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == model.SentinelID {
			continue
		}

		a, b := w.Sources(current)
		for _, src := range [2]int{a, b} {
			if src == model.Unconnected || !model.IsSource(src) {
				continue
			}
			if src == candidate {
				return true
			}
			if !visited[src] {
				visited[src] = true
				stack = append(stack, src)
			}
		}
	}
	return false
}

// WouldCreateCycle reports whether feeding unit from source closes a loop.
func WouldCreateCycle(w model.Wiring, unit, source int) bool {
	return source == unit || HasUpstream(w, source, unit)
}
