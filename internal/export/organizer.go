package export

import (
	"fmt"
	"sort"
	"strings"

	"squint/internal/graph"
	"squint/internal/process"
	"squint/internal/storage"
)

// Organizer structures a snapshot for reading.
// It adds:
// 1. Module map (overview of all modules with counts)
// 2. Cross-module bridges (strongest call connections between modules)
// 3. Flows grouped by tier
type Organizer struct {
	snap *Snapshot
}

// NewOrganizer creates a new organizer.
func NewOrganizer(snap *Snapshot) *Organizer {
	return &Organizer{snap: snap}
}

// ModuleSummary represents a high-level module overview.
type ModuleSummary struct {
	Path         string   `json:"path"`
	Layer        string   `json:"layer"`
	ProcessGroup string   `json:"processGroup"`
	FileCount    int      `json:"fileCount"`
	TopSymbols   []string `json:"topSymbols,omitempty"`
}

// CrossModuleBridge is the call traffic from one module into another.
type CrossModuleBridge struct {
	FromModule string `json:"fromModule" yaml:"fromModule" toml:"fromModule"`
	ToModule   string `json:"toModule" yaml:"toModule" toml:"toModule"`
	CallCount  int    `json:"callCount" yaml:"callCount" toml:"callCount"`
	TopCaller  string `json:"topCaller,omitempty" yaml:"topCaller,omitempty" toml:"topCaller,omitempty"`
	TopCallee  string `json:"topCallee,omitempty" yaml:"topCallee,omitempty" toml:"topCallee,omitempty"`
}

// OrganizedExport contains the structured output.
type OrganizedExport struct {
	Metadata  Metadata            `json:"metadata"`
	ModuleMap []ModuleSummary     `json:"moduleMap"`
	Bridges   []CrossModuleBridge `json:"bridges,omitempty"`
	Groups    []Group             `json:"groups,omitempty"`
	FlowTiers map[int][]Flow      `json:"flowTiers,omitempty"`

	TotalInteractions int `json:"totalInteractions"`
	TotalFlows        int `json:"totalFlows"`
}

// Organize structures the snapshot for text output.
func (o *Organizer) Organize() *OrganizedExport {
	if o.snap == nil {
		return &OrganizedExport{}
	}

	result := &OrganizedExport{
		Metadata:          o.snap.Metadata,
		ModuleMap:         make([]ModuleSummary, 0, len(o.snap.Modules)),
		Bridges:           o.snap.Bridges,
		Groups:            o.snap.Groups,
		FlowTiers:         make(map[int][]Flow),
		TotalInteractions: len(o.snap.Interactions),
		TotalFlows:        len(o.snap.Flows),
	}

	for _, mod := range o.snap.Modules {
		if mod.Depth == 0 {
			continue
		}
		summary := ModuleSummary{
			Path:         mod.FullPath,
			Layer:        mod.Layer,
			ProcessGroup: "-",
			FileCount:    len(mod.Files),
		}
		if mod.ProcessGroup != nil {
			summary.ProcessGroup = fmt.Sprintf("%d", *mod.ProcessGroup)
		}
		for i := 0; i < min(3, len(mod.KeySymbols)); i++ {
			summary.TopSymbols = append(summary.TopSymbols, mod.KeySymbols[i].Name)
		}
		result.ModuleMap = append(result.ModuleMap, summary)
	}

	// Largest modules first
	sort.SliceStable(result.ModuleMap, func(i, j int) bool {
		return result.ModuleMap[i].FileCount > result.ModuleMap[j].FileCount
	})

	for _, f := range o.snap.Flows {
		result.FlowTiers[f.Tier] = append(result.FlowTiers[f.Tier], f)
	}

	return result
}

// detectBridges sums cross-module call weight per ordered module pair and
// names the heaviest caller and callee of each. Bridges are ordered by call
// count, heaviest first.
func detectBridges(
	edges []graph.RawEdge,
	membership map[graph.SymbolID]process.ModuleID,
	symbols map[graph.SymbolID]*storage.Symbol,
	modulePath func(process.ModuleID) string,
) []CrossModuleBridge {
	type pair struct{ from, to process.ModuleID }
	type tally struct {
		calls   int
		callers map[graph.SymbolID]int
		callees map[graph.SymbolID]int
	}

	tallies := make(map[pair]*tally)
	for _, e := range edges {
		from, ok1 := membership[e.From]
		to, ok2 := membership[e.To]
		if !ok1 || !ok2 || from == to {
			continue
		}
		t := tallies[pair{from, to}]
		if t == nil {
			t = &tally{callers: make(map[graph.SymbolID]int), callees: make(map[graph.SymbolID]int)}
			tallies[pair{from, to}] = t
		}
		t.calls += e.Weight
		t.callers[e.From] += e.Weight
		t.callees[e.To] += e.Weight
	}

	symbolName := func(id graph.SymbolID) string {
		if s := symbols[id]; s != nil {
			return s.Name
		}
		return fmt.Sprintf("#%d", id)
	}

	bridges := make([]CrossModuleBridge, 0, len(tallies))
	for p, t := range tallies {
		bridges = append(bridges, CrossModuleBridge{
			FromModule: modulePath(p.from),
			ToModule:   modulePath(p.to),
			CallCount:  t.calls,
			TopCaller:  symbolName(heaviest(t.callers)),
			TopCallee:  symbolName(heaviest(t.callees)),
		})
	}

	sort.Slice(bridges, func(i, j int) bool {
		if bridges[i].CallCount != bridges[j].CallCount {
			return bridges[i].CallCount > bridges[j].CallCount
		}
		if bridges[i].FromModule != bridges[j].FromModule {
			return bridges[i].FromModule < bridges[j].FromModule
		}
		return bridges[i].ToModule < bridges[j].ToModule
	})
	return bridges
}

// heaviest returns the key with the largest weight, smallest id on ties.
func heaviest(weights map[graph.SymbolID]int) graph.SymbolID {
	var best graph.SymbolID
	bestWeight := -1
	for id, w := range weights {
		if w > bestWeight || (w == bestWeight && id < best) {
			best = id
			bestWeight = w
		}
	}
	return best
}

// FormatOrganizedText renders an organized snapshot as markdown-ish text.
func FormatOrganizedText(org *OrganizedExport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Architecture: %s\n", org.Metadata.Repo))
	sb.WriteString(fmt.Sprintf("# Generated: %s\n", org.Metadata.Generated))
	sb.WriteString(fmt.Sprintf("# Symbols: %d | Files: %d | Modules: %d | Groups: %d | Interactions: %d | Flows: %d\n\n",
		org.Metadata.SymbolCount, org.Metadata.FileCount, len(org.ModuleMap), org.Metadata.GroupCount,
		org.TotalInteractions, org.TotalFlows))

	sb.WriteString("## Module Map\n\n")
	sb.WriteString("| Module | Layer | Group | Files | Key Symbols |\n")
	sb.WriteString("|--------|-------|-------|-------|-------------|\n")
	for _, m := range org.ModuleMap {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
			m.Path, m.Layer, m.ProcessGroup, m.FileCount, strings.Join(m.TopSymbols, ", ")))
	}
	sb.WriteString("\n")

	if len(org.Bridges) > 0 {
		sb.WriteString("## Bridges\n\n")
		for _, b := range org.Bridges {
			sb.WriteString(fmt.Sprintf("  %s -> %s  calls=%d  (%s -> %s)\n",
				b.FromModule, b.ToModule, b.CallCount, b.TopCaller, b.TopCallee))
		}
		sb.WriteString("\n")
	}

	if len(org.Groups) > 0 {
		sb.WriteString("## Process Groups\n\n")
		for _, g := range org.Groups {
			sb.WriteString(fmt.Sprintf("  [%d] %s\n", g.ID, strings.Join(g.Modules, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(org.FlowTiers) > 0 {
		sb.WriteString("## Flows\n\n")
		tiers := make([]int, 0, len(org.FlowTiers))
		for tier := range org.FlowTiers {
			tiers = append(tiers, tier)
		}
		sort.Ints(tiers)
		for _, tier := range tiers {
			sb.WriteString(fmt.Sprintf("### Tier %d\n", tier))
			for _, f := range org.FlowTiers[tier] {
				line := fmt.Sprintf("  %s  interactions=%d", f.Name, len(f.Interactions))
				if f.ActionType != "" || f.TargetEntity != "" {
					line += fmt.Sprintf("  %s %s", f.ActionType, f.TargetEntity)
				}
				sb.WriteString(strings.TrimRight(line, " ") + "\n")
			}
		}
	}

	return sb.String()
}
