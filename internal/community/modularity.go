package community

import (
	"squint/internal/graph"
)

// Modularity computes Q for an arbitrary partition of g:
//
//	Q = Σ_c [ in_c/2m − γ·(tot_c/2m)² ]
//
// where in_c is twice the weight inside c and tot_c the sum of member
// degrees. Nodes missing from the partition count as singletons. A graph
// without edges has modularity 0.
func Modularity(g *graph.Graph, partition map[graph.SymbolID]CommunityID, resolution float64) float64 {
	if g.TotalWeight() == 0 {
		return 0
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	type agg struct{ internal, total int }
	byComm := make(map[CommunityID]*agg)
	singles := make([]agg, 0)

	for _, id := range g.Nodes() {
		comm, ok := partition[id]
		if !ok {
			singles = append(singles, agg{total: g.Degree(id)})
			continue
		}
		a := byComm[comm]
		if a == nil {
			a = &agg{}
			byComm[comm] = a
		}
		a.total += g.Degree(id)
		for _, n := range g.Neighbors(id) {
			if other, ok := partition[n]; ok && other == comm {
				a.internal += g.Weight(id, n)
			}
		}
	}

	communities := make([]Community, 0, len(byComm)+len(singles))
	for _, a := range byComm {
		communities = append(communities, Community{InternalWeight: a.internal, TotalDegree: a.total})
	}
	for _, a := range singles {
		communities = append(communities, Community{TotalDegree: a.total})
	}
	return modularityOf(communities, g.TotalWeight(), resolution)
}

// SingletonModularity is the modularity of the partition that puts every
// node in its own community; the starting point of Detect.
func SingletonModularity(g *graph.Graph, resolution float64) float64 {
	return Modularity(g, map[graph.SymbolID]CommunityID{}, resolution)
}

func modularityOf(communities []Community, totalWeight int, resolution float64) float64 {
	if totalWeight == 0 {
		return 0
	}
	m2 := float64(2 * totalWeight)
	q := 0.0
	for _, c := range communities {
		tot := float64(c.TotalDegree) / m2
		q += float64(c.InternalWeight)/m2 - resolution*tot*tot
	}
	return q
}
