package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

func TestHasUpstream(t *testing.T) {
	w := model.NewWiring()
	unit1, unit2 := 3, 17
	w[unit1*2] = model.SentinelID
	w[unit1*2+1] = 123
	w[unit2*2] = unit1

	assert.True(t, HasUpstream(w, unit2, unit1))
	assert.False(t, HasUpstream(w, unit1, unit2))
	assert.True(t, HasUpstream(w, unit1, model.SentinelID))
	assert.True(t, HasUpstream(w, unit2, model.SentinelID))
	assert.True(t, HasUpstream(w, unit2, 123), "transitive ancestor")
	assert.False(t, HasUpstream(w, model.SentinelID, unit1), "sentinel has no ancestors")
}

func TestWouldCreateCycle(t *testing.T) {
	w := model.NewWiring()
	// 0 <- sentinel, 4 <- 0, 8 <- 4
	w[0] = model.SentinelID
	w[8] = 0
	w[16] = 4

	assert.True(t, WouldCreateCycle(w, 0, 8), "8 already depends on 0")
	assert.True(t, WouldCreateCycle(w, 0, 4))
	assert.True(t, WouldCreateCycle(w, 5, 5), "self loop")
	assert.False(t, WouldCreateCycle(w, 8, 0), "adding a parallel edge is fine")
	assert.False(t, WouldCreateCycle(w, 0, 9))

	for unit := 0; unit < model.UnitCount; unit++ {
		assert.False(t, WouldCreateCycle(w, unit, model.SentinelID))
	}
}

func TestHasUpstreamTerminatesOnDiamond(t *testing.T) {
	w := model.NewWiring()
	// 1 and 2 both fed by 0, 5 fed by 1 and 2.
	w[0] = model.SentinelID
	w[2] = 0
	w[4] = 0
	w[10] = 1
	w[11] = 2

	assert.True(t, HasUpstream(w, 5, model.SentinelID))
	assert.False(t, HasUpstream(w, 5, 9))
}
