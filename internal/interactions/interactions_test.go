package interactions

import (
	"testing"

	"squint/internal/graph"
	"squint/internal/process"
)

func TestDerive(t *testing.T) {
	membership := map[graph.SymbolID]process.ModuleID{
		1: 10, 2: 10,
		3: 20,
		4: 30,
	}
	edges := []graph.RawEdge{
		{From: 1, To: 3, Weight: 2},
		{From: 2, To: 3, Weight: 1},
		{From: 1, To: 2, Weight: 5}, // same module
		{From: 3, To: 4, Weight: 1},
		{From: 4, To: 99, Weight: 1}, // unassigned target
	}

	got := Derive(edges, membership)
	if len(got) != 2 {
		t.Fatalf("got %d interactions, want 2: %+v", len(got), got)
	}
	if got[0].From != 10 || got[0].To != 20 || got[0].Weight != 3 || got[0].CallSites != 2 {
		t.Errorf("first interaction = %+v", got[0])
	}
	if got[1].From != 20 || got[1].To != 30 {
		t.Errorf("second interaction = %+v", got[1])
	}
	for _, it := range got {
		if it.Source != SourceCall {
			t.Errorf("Source = %s, want %s", it.Source, SourceCall)
		}
	}
}

func TestGate(t *testing.T) {
	groups := process.ClassifyModuleEdges(
		[]process.ModuleID{1, 2, 3},
		[]process.ModuleEdge{{From: 1, To: 2}},
	)

	list := []Interaction{
		{From: 1, To: 2, Source: SourceInferred},
		{From: 1, To: 3, Source: SourceInferred},
		{From: 2, To: 3, Source: SourceCall},
		{From: 3, To: 77, Source: SourceInferred}, // unknown module
	}

	kept, dropped := Gate(list, groups)

	if len(dropped) != 1 || dropped[0].From != 1 || dropped[0].To != 3 {
		t.Fatalf("dropped = %+v, want only 1->3", dropped)
	}
	if len(kept) != 3 {
		t.Fatalf("kept = %+v", kept)
	}
	for _, it := range kept {
		if it.From == 2 && it.To == 3 && it.SameProcess {
			t.Error("call-backed cross-process interaction should be annotated as such")
		}
		if it.To == 77 && !it.SameProcess {
			t.Error("unknown module should be treated as same process")
		}
	}
}

func TestMerge(t *testing.T) {
	calls := []Interaction{{From: 1, To: 2, Weight: 4, Source: SourceCall}}
	inferred := []Interaction{
		{From: 1, To: 2, Weight: 1},
		{From: 2, To: 1, Weight: 1},
		{From: 3, To: 3, Weight: 1},
	}

	got := Merge(calls, inferred)
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Source != SourceCall || got[0].Weight != 4 {
		t.Errorf("call-backed interaction should win: %+v", got[0])
	}
	if got[1].From != 2 || got[1].Source != SourceInferred {
		t.Errorf("second = %+v", got[1])
	}
}
