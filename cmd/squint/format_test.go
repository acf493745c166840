package main

import (
	"strings"
	"testing"

	"squint/internal/architecture"
	"squint/internal/backends/scip"
	"squint/internal/flows"
	"squint/internal/interactions"
	"squint/internal/process"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatHuman(t *testing.T) {
	group := process.GroupID(1)

	tests := []struct {
		name string
		resp interface{}
		want []string
	}{
		{
			name: "ingest",
			resp: &scip.IngestResult{RunID: "r1", Stats: scip.Stats{Files: 3, Symbols: 5, CallEdges: 4}},
			want: []string{"Ingested 3 files and 5 symbols", "Call edges:    4", "Run:           r1"},
		},
		{
			name: "ingest skipped",
			resp: &scip.IngestResult{RunID: "r1", Skipped: true},
			want: []string{"nothing ingested", "--force"},
		},
		{
			name: "analyze",
			resp: &architecture.AnalyzeResult{RunID: "r2", Stats: architecture.Stats{
				ModuleStats:   architecture.ModuleStats{Modules: 2, Communities: 3, Modularity: 0.4123, Converged: true},
				ProcessGroups: 2,
				FlowsKept:     4,
				FlowsDropped:  1,
			}},
			want: []string{"Analysis run r2", "Modules: 2 (3 communities", "Modularity: 0.4123", "Process groups: 2", "4 kept, 1 dropped"},
		},
		{
			name: "modules",
			resp: &ModulesResponseCLI{Modules: []ModuleCLI{
				{ID: 2, FullPath: "project.api", Layer: "controller", ProcessGroup: &group, MemberCount: 3, KeySymbols: []string{"Handle"}},
			}},
			want: []string{"[2] project.api", "layer=controller", "group=1", "key: Handle"},
		},
		{
			name: "no modules",
			resp: &ModulesResponseCLI{},
			want: []string{"squint modules detect"},
		},
		{
			name: "group check",
			resp: &GroupCheckResponseCLI{A: "project.api", B: "project.web", GroupA: &group},
			want: []string{"project.api (group 1)", "project.web (group -)", "different processes"},
		},
		{
			name: "interactions",
			resp: &InteractionsResponseCLI{
				Interactions: []InteractionCLI{{
					Interaction: interactions.Interaction{ID: 7, Weight: 3, Source: interactions.SourceCall, SameProcess: true},
					FromPath:    "project.api",
					ToPath:      "project.store",
				}},
				Dropped: []InteractionCLI{{
					Interaction: interactions.Interaction{ID: 8, Source: interactions.SourceInferred},
					FromPath:    "project.web",
					ToPath:      "project.store",
				}},
			},
			want: []string{"#7 project.api -> project.store  weight=3  call  same-process", "Dropped", "#8 project.web -> project.store", "cross-process"},
		},
		{
			name: "flows",
			resp: &FlowsResponseCLI{
				Flows: []flows.Flow{{ID: 1, Name: "save", Tier: 1, ActionType: "create", InteractionIDs: []flows.InteractionID{1, 2}}},
				Dropped: []flows.Drop{{
					Dropped: flows.Flow{ID: 2, Name: "store"},
					KeptBy:  flows.Flow{ID: 1},
					Overlap: 1,
					Rule:    flows.RuleSpecificity,
				}},
			},
			want: []string{"#1 [tier 1] save  create/-  interactions=2", "#2 \"store\" superseded by #1 (specificity, overlap 1.00)"},
		},
		{
			name: "status",
			resp: &StatusResponseCLI{RepoRoot: "/repo"},
			want: []string{"Repository: /repo", "Store is empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FormatResponse(tt.resp, FormatHuman)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}
