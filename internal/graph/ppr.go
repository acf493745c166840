package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// PPROptions configures Personalized PageRank computation.
type PPROptions struct {
	// Damping is the probability of following an edge vs teleporting (default: 0.85)
	Damping float64

	// MaxIterations is the maximum number of power iterations (default: 20)
	MaxIterations int

	// Tolerance for convergence detection (default: 1e-6)
	Tolerance float64

	// TopK is the number of top results to return (default: 20)
	TopK int
}

// DefaultPPROptions returns sensible defaults for PPR.
func DefaultPPROptions() PPROptions {
	return PPROptions{
		Damping:       0.85,
		MaxIterations: 20,
		Tolerance:     1e-6,
		TopK:          20,
	}
}

// PPRResult represents a ranked node from PPR computation.
type PPRResult struct {
	NodeID SymbolID `json:"nodeId"`
	Score  float64  `json:"score"`
}

// PPROutput contains the full PPR computation result.
type PPROutput struct {
	Results    []PPRResult `json:"results"`
	Iterations int         `json:"iterations"`
	Converged  bool        `json:"converged"`
	SeedNodes  []SymbolID  `json:"seedNodes"`
}

// PPR computes Personalized PageRank over the directed call edges with the
// given seed nodes. Ties in score are ordered by ascending node ID.
func (g *Graph) PPR(ctx context.Context, seeds []SymbolID, opts PPROptions) (*PPROutput, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed nodes provided")
	}

	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.85
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 20
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}
	if opts.TopK <= 0 {
		opts.TopK = 20
	}

	nodes := g.Nodes()
	idx := make(map[SymbolID]int, len(nodes))
	for i, id := range nodes {
		idx[id] = i
	}

	validSeeds := make([]SymbolID, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := idx[s]; ok {
			validSeeds = append(validSeeds, s)
		}
	}
	if len(validSeeds) == 0 {
		return &PPROutput{Results: []PPRResult{}, SeedNodes: validSeeds}, nil
	}

	n := len(nodes)
	teleport := make([]float64, n)
	share := 1.0 / float64(len(validSeeds))
	for _, s := range validSeeds {
		teleport[idx[s]] += share
	}

	outDegree := make([]float64, n)
	for i, id := range nodes {
		for _, w := range g.out[id] {
			outDegree[i] += float64(w)
		}
	}

	scores := make([]float64, n)
	copy(scores, teleport)
	next := make([]float64, n)

	var iterations int
	var converged bool
	for iter := range opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations = iter + 1

		for i := range next {
			next[i] = 0
		}

		dangling := 0.0
		for i, id := range nodes {
			if outDegree[i] == 0 {
				dangling += scores[i]
				continue
			}
			contrib := scores[i] / outDegree[i]
			for to, w := range g.out[id] {
				next[idx[to]] += contrib * float64(w)
			}
		}

		maxDiff := 0.0
		for i := range next {
			// dangling mass returns to the seeds
			next[i] = opts.Damping*(next[i]+dangling*teleport[i]) + (1-opts.Damping)*teleport[i]
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}

		scores, next = next, scores

		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	results := make([]PPRResult, 0, n)
	for i, s := range scores {
		if s > 0 {
			results = append(results, PPRResult{NodeID: nodes[i], Score: s})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NodeID < results[j].NodeID
	})
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	return &PPROutput{
		Results:    results,
		Iterations: iterations,
		Converged:  converged,
		SeedNodes:  validSeeds,
	}, nil
}

// KeySymbols ranks the members of one module by PageRank seeded with the
// whole module and returns the top k members.
func (g *Graph) KeySymbols(ctx context.Context, members []SymbolID, k int) ([]PPRResult, error) {
	if len(members) == 0 || k <= 0 {
		return nil, nil
	}

	opts := DefaultPPROptions()
	opts.TopK = g.NumNodes()

	out, err := g.PPR(ctx, members, opts)
	if err != nil {
		return nil, err
	}

	memberSet := make(map[SymbolID]bool, len(members))
	for _, m := range members {
		memberSet[m] = true
	}

	ranked := FilterResults(out.Results, func(r PPRResult) bool {
		return memberSet[r.NodeID]
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// FilterResults filters PPR results by a predicate.
func FilterResults(results []PPRResult, predicate func(PPRResult) bool) []PPRResult {
	filtered := make([]PPRResult, 0, len(results))
	for _, r := range results {
		if predicate(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
