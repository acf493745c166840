package community

import (
	"squint/internal/graph"
)

// Cohesion scores each member of a community in [0,1] by the ratio of its
// internal edge weight to the community's average internal degree.
//
// A single-member community scores 1.0 when the symbol is isolated and 0.0
// when it has any edge at all. A multi-member community without internal
// edges scores every member 0.
func Cohesion(g *graph.Graph, members []graph.SymbolID) map[graph.SymbolID]float64 {
	scores := make(map[graph.SymbolID]float64, len(members))
	if len(members) == 0 {
		return scores
	}

	if len(members) == 1 {
		m := members[0]
		if g.Degree(m) == 0 {
			scores[m] = 1.0
		} else {
			scores[m] = 0.0
		}
		return scores
	}

	inside := make(map[graph.SymbolID]bool, len(members))
	for _, m := range members {
		inside[m] = true
	}

	internal := make(map[graph.SymbolID]int, len(members))
	sum := 0
	for _, m := range members {
		for _, n := range g.Neighbors(m) {
			if inside[n] {
				internal[m] += g.Weight(m, n)
			}
		}
		sum += internal[m]
	}

	if sum == 0 {
		for _, m := range members {
			scores[m] = 0
		}
		return scores
	}

	avg := float64(sum) / float64(len(members))
	for _, m := range members {
		score := float64(internal[m]) / avg
		if score > 1 {
			score = 1
		}
		scores[m] = score
	}
	return scores
}
