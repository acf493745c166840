// Package graph builds the weighted symbol graph used for module inference.
package graph

import (
	"sort"
)

// SymbolID identifies a symbol in the store. Ascending numeric order is the
// canonical iteration order everywhere in this module.
type SymbolID int64

// Edge source kinds as recorded by the store.
const (
	SourceInternal = "internal" // call resolved inside the defining file's call graph
	SourceImport   = "import"   // call made through an imported name
)

// RawEdge is one aggregated call/construct relationship read from the store.
type RawEdge struct {
	From    SymbolID `json:"from"`
	To      SymbolID `json:"to"`
	Weight  int      `json:"weight"`
	MinLine int      `json:"minLine,omitempty"`
	Source  string   `json:"source,omitempty"`
}

// Graph is a weighted symbol graph. The adjacency used for community
// detection is undirected; the directed view is kept for ranking.
type Graph struct {
	nodes map[SymbolID]struct{}

	// adj[a][b] == adj[b][a] == summed weight of a->b and b->a
	adj map[SymbolID]map[SymbolID]int

	// out[a][b] == summed weight of a->b only
	out map[SymbolID]map[SymbolID]int

	totalWeight int
	skipped     int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[SymbolID]struct{}),
		adj:   make(map[SymbolID]map[SymbolID]int),
		out:   make(map[SymbolID]map[SymbolID]int),
	}
}

// Build constructs a graph from raw edges. Duplicate (from,to) pairs from the
// internal call graph and the import call graph are summed, self loops and
// non-positive weights are dropped. The result does not depend on input order.
func Build(raw []RawEdge) *Graph {
	g := NewGraph()
	for _, e := range raw {
		g.AddEdge(e.From, e.To, e.Weight)
	}
	return g
}

// AddNode adds a node without edges.
func (g *Graph) AddNode(id SymbolID) {
	g.nodes[id] = struct{}{}
}

// AddEdge records a directed call from -> to with the given weight.
// It reports whether the edge was accepted.
func (g *Graph) AddEdge(from, to SymbolID, weight int) bool {
	if from == to || weight <= 0 {
		g.skipped++
		return false
	}

	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}

	if g.out[from] == nil {
		g.out[from] = make(map[SymbolID]int)
	}
	g.out[from][to] += weight

	if g.adj[from] == nil {
		g.adj[from] = make(map[SymbolID]int)
	}
	if g.adj[to] == nil {
		g.adj[to] = make(map[SymbolID]int)
	}
	g.adj[from][to] += weight
	g.adj[to][from] += weight

	g.totalWeight += weight
	return true
}

// Nodes returns all node IDs in ascending order.
func (g *Graph) Nodes() []SymbolID {
	ids := make([]SymbolID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the number of undirected node pairs joined by an edge.
func (g *Graph) NumEdges() int {
	total := 0
	for from, targets := range g.adj {
		for to := range targets {
			if from < to {
				total++
			}
		}
	}
	return total
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id SymbolID) bool {
	_, ok := g.nodes[id]
	return ok
}

// TotalWeight returns m, the sum of all edge weights with each undirected
// edge counted once.
func (g *Graph) TotalWeight() int {
	return g.totalWeight
}

// Weight returns the undirected weight between a and b.
func (g *Graph) Weight(a, b SymbolID) int {
	if a == b {
		return 0
	}
	return g.adj[a][b]
}

// Degree returns the weighted undirected degree of a node. Self pairs never
// contribute.
func (g *Graph) Degree(id SymbolID) int {
	deg := 0
	for n, w := range g.adj[id] {
		if n != id {
			deg += w
		}
	}
	return deg
}

// Neighbors returns the undirected neighbours of a node in ascending order.
func (g *Graph) Neighbors(id SymbolID) []SymbolID {
	targets := g.adj[id]
	ids := make([]SymbolID, 0, len(targets))
	for n := range targets {
		if n != id {
			ids = append(ids, n)
		}
	}
	sortIDs(ids)
	return ids
}

// Successors returns the directed out-neighbours of a node in ascending order.
func (g *Graph) Successors(id SymbolID) []SymbolID {
	targets := g.out[id]
	ids := make([]SymbolID, 0, len(targets))
	for n := range targets {
		ids = append(ids, n)
	}
	sortIDs(ids)
	return ids
}

// OutWeight returns the directed weight from -> to.
func (g *Graph) OutWeight(from, to SymbolID) int {
	return g.out[from][to]
}

// Edges returns the directed edges in (from, to) ascending order.
func (g *Graph) Edges() []RawEdge {
	edges := make([]RawEdge, 0)
	for from, targets := range g.out {
		for to, w := range targets {
			edges = append(edges, RawEdge{From: from, To: to, Weight: w})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Stats summarises a graph.
type Stats struct {
	TotalNodes   int     `json:"totalNodes"`
	TotalEdges   int     `json:"totalEdges"`
	TotalWeight  int     `json:"totalWeight"`
	SkippedEdges int     `json:"skippedEdges"`
	Isolated     int     `json:"isolated"`
	AvgDegree    float64 `json:"avgDegree"`
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{
		TotalNodes:   len(g.nodes),
		TotalEdges:   g.NumEdges(),
		TotalWeight:  g.totalWeight,
		SkippedEdges: g.skipped,
	}
	for id := range g.nodes {
		if len(g.adj[id]) == 0 {
			stats.Isolated++
		}
	}
	if stats.TotalNodes > 0 {
		stats.AvgDegree = float64(2*g.totalWeight) / float64(stats.TotalNodes)
	}
	return stats
}

// SortIDs sorts symbol IDs ascending in place.
func SortIDs(ids []SymbolID) {
	sortIDs(ids)
}

func sortIDs(ids []SymbolID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
