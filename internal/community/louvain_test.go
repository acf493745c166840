package community

import (
	"math"
	"reflect"
	"testing"

	"squint/internal/graph"
)

func twoPaths() *graph.Graph {
	return graph.Build([]graph.RawEdge{
		{From: 1, To: 2, Weight: 5},
		{From: 2, To: 3, Weight: 5},
		{From: 4, To: 5, Weight: 5},
		{From: 5, To: 6, Weight: 5},
	})
}

// twoCliques builds two 4-cliques joined by a single light bridge.
func twoCliques() *graph.Graph {
	edges := []graph.RawEdge{}
	for _, clique := range [][]graph.SymbolID{{1, 2, 3, 4}, {5, 6, 7, 8}} {
		for i := 0; i < len(clique); i++ {
			for j := i + 1; j < len(clique); j++ {
				edges = append(edges, graph.RawEdge{From: clique[i], To: clique[j], Weight: 3})
			}
		}
	}
	edges = append(edges, graph.RawEdge{From: 4, To: 5, Weight: 1})
	return graph.Build(edges)
}

func membersOf(communities []Community) [][]graph.SymbolID {
	out := make([][]graph.SymbolID, len(communities))
	for i, c := range communities {
		out[i] = c.Members
	}
	return out
}

func TestDetectTwoGroups(t *testing.T) {
	opts := DefaultOptions()
	opts.MinCommunitySize = 2

	result := Detect(twoPaths(), opts)

	want := [][]graph.SymbolID{{1, 2, 3}, {4, 5, 6}}
	if got := membersOf(result.Modules); !reflect.DeepEqual(got, want) {
		t.Fatalf("Modules = %v, want %v", got, want)
	}
	if result.Modularity <= 0 {
		t.Errorf("Modularity = %f, want > 0", result.Modularity)
	}
	if math.Abs(result.Modularity-0.5) > 1e-9 {
		t.Errorf("Modularity = %f, want 0.5", result.Modularity)
	}
	if !result.Converged {
		t.Error("expected convergence")
	}
}

func TestDetectBridgedCliques(t *testing.T) {
	result := Detect(twoCliques(), DefaultOptions())

	want := [][]graph.SymbolID{{1, 2, 3, 4}, {5, 6, 7, 8}}
	if got := membersOf(result.Modules); !reflect.DeepEqual(got, want) {
		t.Fatalf("Modules = %v, want %v", got, want)
	}
	if len(result.Unassigned) != 0 {
		t.Errorf("Unassigned = %v, want none", result.Unassigned)
	}
}

func TestDetectEmptyGraph(t *testing.T) {
	g := graph.NewGraph()
	g.AddNode(3)
	g.AddNode(1)

	opts := DefaultOptions()
	result := Detect(g, opts)

	if result.Modularity != 0 {
		t.Errorf("Modularity = %f, want 0", result.Modularity)
	}
	if len(result.Communities) != 2 {
		t.Fatalf("expected singleton partition, got %d communities", len(result.Communities))
	}
	if len(result.Modules) != 0 {
		t.Errorf("singletons should be filtered, got %d modules", len(result.Modules))
	}
	if got, want := result.Unassigned, []graph.SymbolID{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("Unassigned = %v, want %v", got, want)
	}
	if result.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", result.Iterations)
	}
}

func TestDetectIsolatedKeptWhenThresholdIsOne(t *testing.T) {
	g := twoPaths()
	g.AddNode(100)

	opts := DefaultOptions()
	opts.MinCommunitySize = 1
	result := Detect(g, opts)

	found := false
	for _, c := range result.Modules {
		if len(c.Members) == 1 && c.Members[0] == 100 {
			found = true
		}
	}
	if !found {
		t.Error("isolated node should be emitted as its own module when threshold is 1")
	}
}

func TestDetectModularityMonotonic(t *testing.T) {
	graphs := map[string]*graph.Graph{
		"paths":   twoPaths(),
		"cliques": twoCliques(),
		"star": graph.Build([]graph.RawEdge{
			{From: 1, To: 2, Weight: 1}, {From: 1, To: 3, Weight: 1},
			{From: 1, To: 4, Weight: 1}, {From: 1, To: 5, Weight: 1},
		}),
		"chain": graph.Build([]graph.RawEdge{
			{From: 1, To: 2, Weight: 1}, {From: 2, To: 3, Weight: 9},
			{From: 3, To: 4, Weight: 1}, {From: 4, To: 5, Weight: 9},
			{From: 5, To: 6, Weight: 1},
		}),
	}

	for name, g := range graphs {
		for _, res := range []float64{0.5, 1.0, 2.0} {
			opts := DefaultOptions()
			opts.Resolution = res
			result := Detect(g, opts)

			initial := SingletonModularity(g, res)
			if result.Modularity < initial-1e-12 {
				t.Errorf("%s/res=%.1f: modularity %f below singleton %f", name, res, result.Modularity, initial)
			}
			if got := Modularity(g, result.Partition, res); math.Abs(got-result.Modularity) > 1e-9 {
				t.Errorf("%s/res=%.1f: Modularity() = %f, result %f", name, res, got, result.Modularity)
			}
		}
	}
}

func TestDetectConservation(t *testing.T) {
	for _, g := range []*graph.Graph{twoPaths(), twoCliques()} {
		result := Detect(g, DefaultOptions())

		internal := 0
		for _, c := range result.Communities {
			internal += c.InternalWeight
		}

		inter := 0
		for _, e := range g.Edges() {
			if result.Partition[e.From] != result.Partition[e.To] {
				inter += e.Weight
			}
		}

		if internal+2*inter != 2*g.TotalWeight() {
			t.Errorf("Σinternal (%d) + 2·inter (%d) != 2m (%d)", internal, 2*inter, 2*g.TotalWeight())
		}

		degrees := 0
		for _, c := range result.Communities {
			degrees += c.TotalDegree
		}
		if degrees != 2*g.TotalWeight() {
			t.Errorf("Σ totalDegree = %d, want %d", degrees, 2*g.TotalWeight())
		}
	}
}

func TestDetectDeterministic(t *testing.T) {
	edges := []graph.RawEdge{
		{From: 1, To: 2, Weight: 1}, {From: 2, To: 3, Weight: 1}, {From: 3, To: 1, Weight: 1},
		{From: 3, To: 4, Weight: 1}, {From: 4, To: 5, Weight: 1}, {From: 5, To: 6, Weight: 1},
		{From: 6, To: 4, Weight: 1},
	}
	reversed := make([]graph.RawEdge, len(edges))
	for i, e := range edges {
		reversed[len(edges)-1-i] = e
	}

	a := Detect(graph.Build(edges), DefaultOptions())
	b := Detect(graph.Build(reversed), DefaultOptions())

	if !reflect.DeepEqual(a.Partition, b.Partition) {
		t.Errorf("partitions differ: %v vs %v", a.Partition, b.Partition)
	}
}

func TestDetectIterationCap(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 1
	result := Detect(twoCliques(), opts)

	if result.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", result.Iterations)
	}
	if result.Converged {
		t.Error("a single pass with moves should not report convergence")
	}
	if len(result.Partition) != 8 {
		t.Errorf("every node should still be assigned, got %d", len(result.Partition))
	}
}

func TestDetectHighResolutionSplits(t *testing.T) {
	low := Detect(twoCliques(), Options{Resolution: 0.05, MinCommunitySize: 1})
	high := Detect(twoCliques(), Options{Resolution: 8, MinCommunitySize: 1})

	if len(high.Communities) < len(low.Communities) {
		t.Errorf("higher resolution produced fewer communities: %d < %d", len(high.Communities), len(low.Communities))
	}
}

func TestDetectMultiLevel(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxLevels = 4
	opts.MinCommunitySize = 1

	g := twoCliques()
	single := Detect(g, DefaultOptions())
	multi := Detect(g, opts)

	if multi.Modularity < single.Modularity-1e-12 {
		t.Errorf("aggregation lowered modularity: %f < %f", multi.Modularity, single.Modularity)
	}
	if multi.Levels < 1 {
		t.Errorf("Levels = %d, want >= 1", multi.Levels)
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Resolution: -1, MinGain: -0.5, MaxIterations: 0, MinCommunitySize: 0}
	opts.Validate()

	if opts.Resolution != DefaultResolution {
		t.Errorf("Resolution = %f, want %f", opts.Resolution, DefaultResolution)
	}
	if opts.MinGain != DefaultMinGain {
		t.Errorf("MinGain = %f, want %f", opts.MinGain, DefaultMinGain)
	}
	if opts.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", opts.MaxIterations, DefaultMaxIterations)
	}
	if opts.MinCommunitySize != 1 {
		t.Errorf("MinCommunitySize = %d, want 1", opts.MinCommunitySize)
	}
	if opts.MaxLevels != DefaultMaxLevels {
		t.Errorf("MaxLevels = %d, want %d", opts.MaxLevels, DefaultMaxLevels)
	}
}
