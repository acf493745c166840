package community

import (
	"sort"

	"squint/internal/graph"
)

// CommunityID identifies a community in a detection result. IDs are dense
// and ordered by each community's smallest member.
type CommunityID int

// Community is one final community of the partition.
type Community struct {
	ID      CommunityID      `json:"id"`
	Members []graph.SymbolID `json:"members"`

	// InternalWeight is twice the sum of edge weights strictly inside.
	InternalWeight int `json:"internalWeight"`

	// TotalDegree is the sum of member degrees, external edges included.
	TotalDegree int `json:"totalDegree"`
}

// Size returns the member count.
func (c Community) Size() int {
	return len(c.Members)
}

// Result is the outcome of Detect.
type Result struct {
	// Partition assigns every node of the graph to a community.
	Partition map[graph.SymbolID]CommunityID `json:"-"`

	// Communities holds every community of the partition.
	Communities []Community `json:"communities"`

	// Modules holds the communities that meet MinCommunitySize.
	Modules []Community `json:"modules"`

	// Unassigned lists the nodes of communities below MinCommunitySize, left
	// for a later fallback pass.
	Unassigned []graph.SymbolID `json:"unassigned"`

	// Modularity of the full partition; 0 for a graph without edges.
	Modularity float64 `json:"modularity"`

	// Iterations counts local-move passes over all levels.
	Iterations int `json:"iterations"`

	// Levels counts the levels that ran.
	Levels int `json:"levels"`

	// Converged is false when the last level stopped at MaxIterations.
	Converged bool `json:"converged"`
}

// ModuleAssignment returns symbol -> community for module members only.
func (r *Result) ModuleAssignment() map[graph.SymbolID]CommunityID {
	out := make(map[graph.SymbolID]CommunityID)
	for _, c := range r.Modules {
		for _, m := range c.Members {
			out[m] = c.ID
		}
	}
	return out
}

// Detect partitions g by greedy modularity optimisation.
//
// Nodes are visited in ascending id order and candidate communities in
// ascending community id order, so identical graphs always produce identical
// partitions. Detection is a pure function of its inputs and bounded by
// MaxIterations × MaxLevels passes.
func Detect(g *graph.Graph, opts Options) *Result {
	opts.Validate()

	nodes := g.Nodes()
	base := baseLevel(g, nodes)

	assign := make([]int, len(nodes))
	for i := range assign {
		assign[i] = i
	}

	result := &Result{Converged: true}

	if g.TotalWeight() == 0 {
		return finish(g, nodes, assign, opts, result)
	}

	m2 := float64(2 * g.TotalWeight())
	lv := base
	for result.Levels < opts.MaxLevels {
		table := newSingletonTable(lv)
		passes, moves, converged := table.localMoves(lv, m2, opts)

		result.Levels++
		result.Iterations += passes
		result.Converged = converged

		if moves == 0 {
			break
		}

		next, mapping := table.aggregate(lv)
		for i := range assign {
			assign[i] = mapping[assign[i]]
		}
		lv = next
	}

	return finish(g, nodes, assign, opts, result)
}

// baseLevel turns the symbol graph into a dense level indexed by position in
// the ascending node list.
func baseLevel(g *graph.Graph, nodes []graph.SymbolID) *level {
	index := make(map[graph.SymbolID]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	lv := &level{
		n:      len(nodes),
		adj:    make([]map[int]int, len(nodes)),
		self:   make([]int, len(nodes)),
		degree: make([]int, len(nodes)),
	}
	for i, id := range nodes {
		lv.adj[i] = make(map[int]int)
		for _, n := range g.Neighbors(id) {
			lv.adj[i][index[n]] = g.Weight(id, n)
		}
		lv.degree[i] = g.Degree(id)
	}
	return lv
}

// finish builds communities from the base assignment, computes their
// aggregates from the graph, and applies the size filter.
func finish(g *graph.Graph, nodes []graph.SymbolID, assign []int, opts Options, result *Result) *Result {
	groups := make(map[int][]graph.SymbolID)
	for i, id := range nodes {
		groups[assign[i]] = append(groups[assign[i]], id)
	}

	communities := make([]Community, 0, len(groups))
	for _, members := range groups {
		graph.SortIDs(members)
		communities = append(communities, Community{Members: members})
	}
	sort.Slice(communities, func(i, j int) bool {
		return communities[i].Members[0] < communities[j].Members[0]
	})

	result.Partition = make(map[graph.SymbolID]CommunityID, len(nodes))
	for i := range communities {
		c := &communities[i]
		c.ID = CommunityID(i)
		for _, m := range c.Members {
			result.Partition[m] = c.ID
		}
	}
	for i := range communities {
		c := &communities[i]
		for _, m := range c.Members {
			c.TotalDegree += g.Degree(m)
			for _, n := range g.Neighbors(m) {
				if result.Partition[n] == c.ID {
					c.InternalWeight += g.Weight(m, n)
				}
			}
		}
	}

	result.Communities = communities
	result.Modularity = modularityOf(communities, g.TotalWeight(), opts.Resolution)

	result.Modules = make([]Community, 0)
	result.Unassigned = make([]graph.SymbolID, 0)
	for _, c := range communities {
		if c.Size() >= opts.MinCommunitySize {
			result.Modules = append(result.Modules, c)
		} else {
			result.Unassigned = append(result.Unassigned, c.Members...)
		}
	}
	graph.SortIDs(result.Unassigned)

	return result
}
