package scoring

import (
	"math"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

// MaxDistance is returned for an empty candidate and exceeds every finite
// distance.
const MaxDistance = math.MaxFloat64

// Distance measures how far candidate is from target with unit weights.
// Both polynomials must be canonical.
func Distance(target, candidate model.Polynomial) float64 {
	return weightedDistance(target, candidate, 1, 1)
}

// Distance uses the configured term and size weights.
func (p Params) Distance(target, candidate model.Polynomial) float64 {
	return weightedDistance(target, candidate, p.DistanceTermWeight, p.DistanceSizeWeight)
}

// weightedDistance matches every target exponent to the closest candidate
// exponent reachable by a forward-only cursor, then charges the term count
// mismatch. It is not symmetric.
func weightedDistance(target, candidate model.Polynomial, termWeight, sizeWeight float64) float64 {
	if len(candidate) == 0 {
		return MaxDistance
	}

	terms := 0
	cursor := 0
	for _, exp := range target {
		best := absInt(exp - candidate[cursor])
		for cursor+1 < len(candidate) && best > absInt(exp-candidate[cursor+1]) {
			cursor++
			best = absInt(exp - candidate[cursor])
		}
		terms += best
	}
	mismatch := absInt(len(target) - len(candidate))
	return termWeight*float64(terms) + sizeWeight*float64(mismatch)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
