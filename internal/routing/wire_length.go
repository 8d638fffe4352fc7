// Package routing estimates how much physical wire a wiring needs.
//
// Each net (one unit output plus every unit it feeds) is routed as a
// vertical backbone spanning the net's rows, placed on the column that is
// cheapest to reach from the remaining points. Points that are grid
// neighbours share a cluster and only need one hop to each other. The
// estimate overshoots a true rectilinear Steiner tree; it is a prior for
// the search, not a router.
package routing

import (
	"math"

	"github.com/adi-muresan/circuit-planner/internal/model"
	"github.com/adi-muresan/circuit-planner/internal/propagation"
)

// WiringLength sums the estimated length of every net in w. The sentinel
// has no grid position and contributes no net.
func WiringLength(w model.Wiring) int {
	downstream := propagation.OutputMapping(w)
	total := 0
	for unit := 0; unit < model.UnitCount; unit++ {
		if len(downstream[unit]) == 0 {
			continue
		}
		total += NetLength(netPoints(unit, downstream[unit]))
	}
	return total
}

// netPoints returns the distinct grid points of a net, source first.
func netPoints(source int, sinks []int) []model.Position {
	seen := make(map[int]struct{}, len(sinks)+1)
	points := make([]model.Position, 0, len(sinks)+1)
	for _, unit := range append([]int{source}, sinks...) {
		if _, ok := seen[unit]; ok {
			continue
		}
		seen[unit] = struct{}{}
		points = append(points, model.PositionOf(unit))
	}
	return points
}

// NetLength estimates the wire needed to connect points: the backbone row
// span plus the cheapest cost of attaching every cluster to a backbone on
// one of the grid columns.
func NetLength(points []model.Position) int {
	if len(points) < 2 {
		return 0
	}

	rowLow, rowHigh := math.MaxInt, math.MinInt
	for _, p := range points {
		rowLow = min(rowLow, p.Row)
		rowHigh = max(rowHigh, p.Row)
	}
	backbone := rowHigh - rowLow

	clusters := NewDisjointSet(len(points))
	for i := 0; i < len(points)-1; i++ {
		for j := i + 1; j < len(points); j++ {
			if manhattan(points[i], points[j]) == 1 {
				clusters.Union(i, j)
			}
		}
	}

	best := math.MaxInt
	for column := 0; column < model.UnitColumns; column++ {
		best = min(best, columnCost(points, clusters, column))
	}
	return backbone + best
}

// columnCost charges each cluster its closest distance to the column once,
// through its representative, plus one hop for every other member. Clusters
// already touching the column cost nothing.
func columnCost(points []model.Position, clusters *DisjointSet, column int) int {
	distance := make([]int, len(points))
	for i := range distance {
		distance[i] = math.MaxInt
	}
	for i, p := range points {
		root := clusters.Find(i)
		distance[root] = min(distance[root], abs(p.Column-column))
	}

	cost := 0
	for i := range points {
		root := clusters.Find(i)
		if distance[root] == 0 {
			continue
		}
		if root == i {
			cost += distance[root]
		} else {
			cost++
		}
	}
	return cost
}

func manhattan(a, b model.Position) int {
	return abs(a.Row-b.Row) + abs(a.Column-b.Column)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
