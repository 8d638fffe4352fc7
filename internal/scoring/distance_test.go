package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

func TestDistanceToSelfIsZero(t *testing.T) {
	for _, p := range []model.Polynomial{{1}, {7, 3}, {9, 5, 4, 1}} {
		assert.Zero(t, Distance(p, p))
	}
}

func TestDistanceToEmptyCandidateDominates(t *testing.T) {
	target := model.Polynomial{7, 3}
	empty := Distance(target, nil)
	assert.Equal(t, MaxDistance, empty)
	for _, q := range []model.Polynomial{{1}, {100, 50, 2}, {7, 3}} {
		assert.Greater(t, empty, Distance(target, q))
	}
}

func TestDistanceIsAsymmetric(t *testing.T) {
	a := model.Polynomial{7, 3}
	b := model.Polynomial{7}
	assert.Equal(t, 5.0, Distance(a, b))
	assert.Equal(t, 1.0, Distance(b, a))
}

func TestDistanceCursorOnlyAdvances(t *testing.T) {
	// 9 matches 8, then 2 walks past 5 to 2; one term of mismatch.
	assert.Equal(t, 1.0+1.0, Distance(model.Polynomial{9, 2}, model.Polynomial{8, 5, 2}))
	// Ties do not advance the cursor: 5 stays on 6.
	assert.Equal(t, 1.0+1.0, Distance(model.Polynomial{5}, model.Polynomial{6, 4}))
}

func TestWeightedDistance(t *testing.T) {
	p := DefaultParams()
	p.DistanceTermWeight = 2
	p.DistanceSizeWeight = 0.5
	// per-exponent distance 4, mismatch 1
	assert.Equal(t, 8.5, p.Distance(model.Polynomial{7, 3}, model.Polynomial{7}))
	assert.Equal(t, MaxDistance, p.Distance(model.Polynomial{7, 3}, nil))
}
