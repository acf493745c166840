// Package interactions summarises symbol-level calls into module-level
// interactions and gates inferred interactions on process boundaries.
package interactions

import (
	"sort"

	"squint/internal/graph"
	"squint/internal/process"
)

// Source says where an interaction came from.
type Source string

const (
	// SourceCall interactions are backed by observed symbol calls.
	SourceCall Source = "call"
	// SourceInferred interactions were proposed without call evidence.
	SourceInferred Source = "inferred"
)

// Interaction is a directed, weighted edge between two modules.
type Interaction struct {
	ID          int64            `json:"id,omitempty"`
	From        process.ModuleID `json:"from"`
	To          process.ModuleID `json:"to"`
	Weight      int              `json:"weight"`
	CallSites   int              `json:"callSites"`
	Source      Source           `json:"source"`
	SameProcess bool             `json:"sameProcess"`
}

// Derive sums symbol calls into module interactions. Calls with an
// unassigned endpoint or inside one module are skipped. The result is
// ordered by (From, To).
func Derive(edges []graph.RawEdge, membership map[graph.SymbolID]process.ModuleID) []Interaction {
	type key struct{ from, to process.ModuleID }
	byPair := make(map[key]*Interaction)

	for _, e := range edges {
		if e.Weight <= 0 {
			continue
		}
		from, ok := membership[e.From]
		if !ok {
			continue
		}
		to, ok := membership[e.To]
		if !ok || from == to {
			continue
		}

		k := key{from, to}
		it := byPair[k]
		if it == nil {
			it = &Interaction{From: from, To: to, Source: SourceCall, SameProcess: true}
			byPair[k] = it
		}
		it.Weight += e.Weight
		it.CallSites++
	}

	out := make([]Interaction, 0, len(byPair))
	for _, it := range byPair {
		out = append(out, *it)
	}
	sortInteractions(out)
	return out
}

// Annotate sets SameProcess on every interaction.
func Annotate(list []Interaction, groups *process.Groups) []Interaction {
	out := make([]Interaction, len(list))
	for i, it := range list {
		it.SameProcess = process.AreSameProcess(it.From, it.To, groups)
		out[i] = it
	}
	return out
}

// Gate annotates the interactions and removes inferred ones that cross a
// process boundary. Call-backed interactions are always kept: a real call is
// evidence that outweighs the grouping.
func Gate(list []Interaction, groups *process.Groups) (kept, dropped []Interaction) {
	kept = make([]Interaction, 0, len(list))
	dropped = make([]Interaction, 0)
	for _, it := range Annotate(list, groups) {
		if it.Source == SourceInferred && !it.SameProcess {
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
	}
	return kept, dropped
}

// Merge combines call-backed and inferred interactions. An inferred
// interaction for a pair that already has call evidence is absorbed.
func Merge(calls, inferred []Interaction) []Interaction {
	type key struct{ from, to process.ModuleID }
	seen := make(map[key]bool, len(calls))
	out := make([]Interaction, 0, len(calls)+len(inferred))
	for _, it := range calls {
		seen[key{it.From, it.To}] = true
		out = append(out, it)
	}
	for _, it := range inferred {
		if it.From == it.To || seen[key{it.From, it.To}] {
			continue
		}
		seen[key{it.From, it.To}] = true
		it.Source = SourceInferred
		out = append(out, it)
	}
	sortInteractions(out)
	return out
}

func sortInteractions(list []Interaction) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].From != list[j].From {
			return list[i].From < list[j].From
		}
		return list[i].To < list[j].To
	})
}
