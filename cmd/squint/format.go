package main

import (
	"fmt"
	"strings"

	"squint/internal/architecture"
	"squint/internal/backends/scip"
	"squint/internal/flows"
	"squint/internal/output"
	"squint/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as deterministic JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := output.DeterministicEncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *scip.IngestResult:
		return formatIngestHuman(v), nil
	case *architecture.DetectResult:
		return formatDetectHuman(v), nil
	case *architecture.AnalyzeResult:
		return formatAnalyzeHuman(v), nil
	case *ModulesResponseCLI:
		return formatModulesHuman(v), nil
	case *GroupsResponseCLI:
		return formatGroupsHuman(v), nil
	case *GroupCheckResponseCLI:
		return formatGroupCheckHuman(v), nil
	case *InteractionsResponseCLI:
		return formatInteractionsHuman(v), nil
	case *InteractionAddResponseCLI:
		return fmt.Sprintf("Recorded inferred interaction #%d: %s -> %s", v.ID, v.From, v.To), nil
	case *FlowsResponseCLI:
		return formatFlowsHuman(v), nil
	case *FlowImportResponseCLI:
		return fmt.Sprintf("Imported %d flow candidates from %s", len(v.Imported), v.File), nil
	case *SearchResponseCLI:
		return formatSearchHuman(v), nil
	case *StatusResponseCLI:
		return formatStatusHuman(v), nil
	case *VersionResponseCLI:
		return strings.TrimRight(version.Full(), "\n"), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatIngestHuman(r *scip.IngestResult) string {
	var b strings.Builder
	if r.Skipped {
		b.WriteString(fmt.Sprintf("Index unchanged since run %s, nothing ingested.\n", r.RunID))
		b.WriteString("Use --force to ingest anyway.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Ingested %d files and %d symbols\n", r.Stats.Files, r.Stats.Symbols))
	b.WriteString(fmt.Sprintf("  Call edges:    %d\n", r.Stats.CallEdges))
	b.WriteString(fmt.Sprintf("  File imports:  %d\n", r.Stats.Imports))
	b.WriteString(fmt.Sprintf("  External refs: %d\n", r.Stats.ExternalReferences))
	if r.Stats.Commit != "" {
		b.WriteString(fmt.Sprintf("  Commit:        %s\n", r.Stats.Commit))
	}
	b.WriteString(fmt.Sprintf("  Run:           %s", r.RunID))
	return b.String()
}

func writeModuleStats(b *strings.Builder, s architecture.ModuleStats) {
	b.WriteString(fmt.Sprintf("Modules: %d (%d communities, %d symbols unassigned)\n", s.Modules, s.Communities, s.Unassigned))
	b.WriteString(fmt.Sprintf("  Symbols:    %d\n", s.Symbols))
	b.WriteString(fmt.Sprintf("  Edges:      %d\n", s.Edges))
	b.WriteString(fmt.Sprintf("  Modularity: %.4f\n", s.Modularity))
	converged := "converged"
	if !s.Converged {
		converged = "iteration cap reached"
	}
	b.WriteString(fmt.Sprintf("  Iterations: %d (%s)\n", s.Iterations, converged))
}

func formatDetectHuman(r *architecture.DetectResult) string {
	var b strings.Builder
	writeModuleStats(&b, r.Stats)
	for _, m := range r.Modules {
		if m.Depth == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  %-40s %-12s %d members\n", m.FullPath, m.Layer, len(m.Members)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAnalyzeHuman(r *architecture.AnalyzeResult) string {
	var b strings.Builder
	if r.Skipped {
		b.WriteString(fmt.Sprintf("Inputs unchanged since run %s, analysis skipped.\n", r.RunID))
		b.WriteString("Use --force to rerun.\n")
	} else {
		b.WriteString(fmt.Sprintf("Analysis run %s (%dms)\n", r.RunID, r.Stats.DurationMs))
	}
	writeModuleStats(&b, r.Stats.ModuleStats)
	b.WriteString(fmt.Sprintf("Process groups: %d\n", r.Stats.ProcessGroups))
	b.WriteString(fmt.Sprintf("Interactions:   %d kept, %d dropped\n", r.Stats.Interactions, r.Stats.InteractionsDropped))
	b.WriteString(fmt.Sprintf("Flows:          %d kept, %d dropped", r.Stats.FlowsKept, r.Stats.FlowsDropped))
	return b.String()
}

func formatModulesHuman(r *ModulesResponseCLI) string {
	if len(r.Modules) == 0 {
		return "No modules. Run `squint modules detect` first."
	}
	var b strings.Builder
	for _, m := range r.Modules {
		group := "-"
		if m.ProcessGroup != nil {
			group = fmt.Sprintf("%d", *m.ProcessGroup)
		}
		b.WriteString(fmt.Sprintf("[%d] %s  layer=%s  group=%s  members=%d\n", m.ID, m.FullPath, m.Layer, group, m.MemberCount))
		if len(m.KeySymbols) > 0 {
			b.WriteString(fmt.Sprintf("    key: %s\n", strings.Join(m.KeySymbols, ", ")))
		}
		if len(m.Members) > 0 {
			b.WriteString(fmt.Sprintf("    members: %s\n", strings.Join(m.Members, ", ")))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatGroupsHuman(r *GroupsResponseCLI) string {
	if r.GroupCount == 0 {
		return "No process groups. Run `squint groups classify` first."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Process groups: %d (%d cross-group pairs)\n", r.GroupCount, r.CrossGroupPairs))
	for _, g := range r.Groups {
		b.WriteString(fmt.Sprintf("  [%d] %s\n", g.ID, strings.Join(g.Modules, ", ")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatGroupCheckHuman(r *GroupCheckResponseCLI) string {
	verdict := "different processes"
	if r.SameProcess {
		verdict = "same process"
	}
	return fmt.Sprintf("%s (group %s) and %s (group %s): %s",
		r.A, groupLabel(r.GroupA), r.B, groupLabel(r.GroupB), verdict)
}

func formatInteractionsHuman(r *InteractionsResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Interactions: %d\n", len(r.Interactions)))
	for _, i := range r.Interactions {
		b.WriteString(formatInteractionLine(i))
	}
	if len(r.Dropped) > 0 {
		b.WriteString(fmt.Sprintf("Dropped (cross-process, inferred): %d\n", len(r.Dropped)))
		for _, i := range r.Dropped {
			b.WriteString(formatInteractionLine(i))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatInteractionLine(i InteractionCLI) string {
	process := "same-process"
	if !i.SameProcess {
		process = "cross-process"
	}
	return fmt.Sprintf("  #%d %s -> %s  weight=%d  %s  %s\n", i.ID, i.FromPath, i.ToPath, i.Weight, i.Source, process)
}

func formatFlowsHuman(r *FlowsResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Flows: %d\n", len(r.Flows)))
	for _, f := range r.Flows {
		b.WriteString(formatFlowLine(f))
	}
	if len(r.Dropped) > 0 {
		b.WriteString(fmt.Sprintf("Dropped: %d\n", len(r.Dropped)))
		for _, d := range r.Dropped {
			b.WriteString(fmt.Sprintf("  #%d %q superseded by #%d (%s, overlap %.2f)\n",
				d.Dropped.ID, d.Dropped.Name, d.KeptBy.ID, d.Rule, d.Overlap))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatFlowLine(f flows.Flow) string {
	action := f.ActionType
	if action == "" {
		action = "-"
	}
	entity := f.TargetEntity
	if entity == "" {
		entity = "-"
	}
	return fmt.Sprintf("  #%d [tier %d] %s  %s/%s  interactions=%d steps=%d\n",
		f.ID, f.Tier, f.Name, action, entity, len(f.InteractionSet()), len(f.DefinitionSteps))
}

func formatSearchHuman(r *SearchResponseCLI) string {
	if len(r.Hits) == 0 {
		return fmt.Sprintf("No symbols match %q", r.Query)
	}
	var b strings.Builder
	for _, h := range r.Hits {
		module := h.Module
		if module == "" {
			module = "-"
		}
		b.WriteString(fmt.Sprintf("  %-30s %-10s %s:%d  module=%s  (%s)\n", h.Name, h.Kind, h.FilePath, h.StartLine, module, h.MatchType))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStatusHuman(r *StatusResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("squint v%s\n", version.Version))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Repository: %s\n", r.RepoRoot))
	b.WriteString(fmt.Sprintf("Database:   %s\n\n", r.Database))
	b.WriteString(fmt.Sprintf("  Files:        %d\n", r.Files))
	b.WriteString(fmt.Sprintf("  Symbols:      %d\n", r.Symbols))
	b.WriteString(fmt.Sprintf("  Call edges:   %d\n", r.CallEdges))
	b.WriteString(fmt.Sprintf("  Imports:      %d\n", r.Imports))
	b.WriteString(fmt.Sprintf("  Modules:      %d\n", r.Modules))
	b.WriteString(fmt.Sprintf("  Interactions: %d\n", r.Interactions))
	b.WriteString(fmt.Sprintf("  Flows:        %d\n", r.Flows))
	if r.LastIngest != nil {
		b.WriteString(fmt.Sprintf("\nLast ingest:  %s\n", r.LastIngest.StartedAt.Format("2006-01-02 15:04:05")))
	}
	if r.LastAnalyze != nil {
		b.WriteString(fmt.Sprintf("Last analyze: %s\n", r.LastAnalyze.StartedAt.Format("2006-01-02 15:04:05")))
	}
	if r.Symbols == 0 {
		b.WriteString("\nStore is empty. Run `squint ingest` to load a SCIP index.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
