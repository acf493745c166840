package scip

import (
	"testing"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"

	"squint/internal/graph"
	"squint/internal/process"
)

const (
	symRepo    = "scip-go gomod squint v1 `squint/internal/store`/Repo#"
	symSave    = "scip-go gomod squint v1 `squint/internal/store`/Repo#Save()."
	symHelper  = "scip-go gomod squint v1 `squint/internal/store`/helper()."
	symHandle  = "scip-go gomod squint v1 `squint/internal/api`/Handle()."
	symRequest = "scip-go gomod squint v1 `squint/internal/api`/Request#"
	symPrintln = "scip-go gomod fmt v1 `fmt`/Println()."
)

func def(symbol string, rng ...int32) *scippb.Occurrence {
	return &scippb.Occurrence{Symbol: symbol, Range: rng, SymbolRoles: SymbolRoleDefinition}
}

func ref(symbol string, rng ...int32) *scippb.Occurrence {
	return &scippb.Occurrence{Symbol: symbol, Range: rng}
}

func testIndex() *scippb.Index {
	save := def(symSave, 5, 15, 19)
	save.EnclosingRange = []int32{5, 0, 9, 1}

	return &scippb.Index{
		Metadata: &scippb.Metadata{
			ToolInfo: &scippb.ToolInfo{Name: "scip-go", Arguments: []string{"--commit=0123456789abcdef0123456789abcdef01234567"}},
		},
		Documents: []*scippb.Document{
			{
				RelativePath: "internal/store/repo.go",
				Language:     "Go",
				Symbols: []*scippb.SymbolInformation{
					{Symbol: symRepo, Kind: scippb.SymbolInformation_Struct, DisplayName: "Repo"},
				},
				Occurrences: []*scippb.Occurrence{
					def(symRepo, 2, 5, 9),
					save,
					ref(symRepo, 6, 2, 6),
					ref(symHelper, 7, 2, 8),
					def(symHelper, 11, 5, 11),
				},
			},
			{
				RelativePath: "./internal/api/handler.go",
				Occurrences: []*scippb.Occurrence{
					ref(symRepo, 0, 0, 4),
					def(symHandle, 3, 5, 11),
					ref(symSave, 4, 2, 6),
					ref(symPrintln, 5, 2, 9),
					def("local 0", 6, 1, 2),
					ref(symSave, 8, 2, 6),
				},
			},
			{
				RelativePath: "internal/api/types.go",
				Occurrences: []*scippb.Occurrence{
					def(symRequest, 0, 5, 12),
					ref(symRepo, 2, 4, 8),
				},
			},
		},
	}
}

func TestConvert(t *testing.T) {
	result := Convert(testIndex(), nil)

	wantFiles := []string{"internal/api/handler.go", "internal/api/types.go", "internal/store/repo.go"}
	if len(result.Data.Files) != len(wantFiles) {
		t.Fatalf("files = %d, want %d", len(result.Data.Files), len(wantFiles))
	}
	for i, f := range result.Data.Files {
		if f.Path != wantFiles[i] || f.ID != process.FileID(i+1) {
			t.Errorf("file %d = %+v, want %s", i, f, wantFiles[i])
		}
	}
	if got := result.Data.Files[0].Language; got != "go" {
		t.Errorf("handler.go language = %q, want go (from extension)", got)
	}
	if got := result.Data.Files[2].Language; got != "go" {
		t.Errorf("repo.go language = %q, want go", got)
	}

	wantSymbols := []struct {
		name  string
		kind  SymbolKind
		file  process.FileID
		start int
		end   int
	}{
		{"Handle", KindFunction, 1, 4, 4 + DefaultMaxFunctionLines},
		{"Request", KindClass, 2, 1, 1},
		{"Repo", KindClass, 3, 3, 3},
		{"Save", KindMethod, 3, 6, 10},
		{"helper", KindFunction, 3, 12, 12 + DefaultMaxFunctionLines},
	}
	if len(result.Data.Symbols) != len(wantSymbols) {
		t.Fatalf("symbols = %d, want %d", len(result.Data.Symbols), len(wantSymbols))
	}
	for i, want := range wantSymbols {
		got := result.Data.Symbols[i]
		if got.ID != graph.SymbolID(i+1) || got.Name != want.name || got.Kind != string(want.kind) ||
			got.FileID != want.file || got.StartLine != want.start || got.EndLine != want.end {
			t.Errorf("symbol %d = %+v, want %+v", i, got, want)
		}
	}

	wantEdges := []graph.RawEdge{
		{From: 1, To: 4, Weight: 2, MinLine: 5, Source: graph.SourceImport},
		{From: 4, To: 3, Weight: 1, MinLine: 7, Source: graph.SourceInternal},
		{From: 4, To: 5, Weight: 1, MinLine: 8, Source: graph.SourceInternal},
	}
	if len(result.Data.CallEdges) != len(wantEdges) {
		t.Fatalf("edges = %+v, want %+v", result.Data.CallEdges, wantEdges)
	}
	for i, want := range wantEdges {
		if result.Data.CallEdges[i] != want {
			t.Errorf("edge %d = %+v, want %+v", i, result.Data.CallEdges[i], want)
		}
	}

	wantImports := []process.FileImport{
		{From: 1, To: 3, IsTypeOnly: false},
		{From: 2, To: 3, IsTypeOnly: true},
	}
	if len(result.Data.Imports) != len(wantImports) {
		t.Fatalf("imports = %+v, want %+v", result.Data.Imports, wantImports)
	}
	for i, want := range wantImports {
		if result.Data.Imports[i] != want {
			t.Errorf("import %d = %+v, want %+v", i, result.Data.Imports[i], want)
		}
	}

	stats := result.Stats
	if stats.Documents != 3 || stats.Files != 3 || stats.Symbols != 5 || stats.CallEdges != 3 || stats.Imports != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ExternalReferences != 1 {
		t.Errorf("external refs = %d, want 1", stats.ExternalReferences)
	}
	if stats.Commit != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("commit = %q", stats.Commit)
	}
}

func TestConvertDeterministic(t *testing.T) {
	a := Convert(testIndex(), nil)

	// Document order in the index must not change ids
	index := testIndex()
	index.Documents[0], index.Documents[2] = index.Documents[2], index.Documents[0]
	b := Convert(index, nil)

	if len(a.Data.Symbols) != len(b.Data.Symbols) {
		t.Fatalf("symbol counts differ: %d vs %d", len(a.Data.Symbols), len(b.Data.Symbols))
	}
	for i := range a.Data.Symbols {
		if a.Data.Symbols[i] != b.Data.Symbols[i] {
			t.Errorf("symbol %d differs: %+v vs %+v", i, a.Data.Symbols[i], b.Data.Symbols[i])
		}
	}
	for i := range a.Data.CallEdges {
		if a.Data.CallEdges[i] != b.Data.CallEdges[i] {
			t.Errorf("edge %d differs: %+v vs %+v", i, a.Data.CallEdges[i], b.Data.CallEdges[i])
		}
	}
}

func TestConvertExcludesDocuments(t *testing.T) {
	filter, err := NewPathFilter([]string{"internal/store/"}, "")
	if err != nil {
		t.Fatalf("NewPathFilter: %v", err)
	}
	result := Convert(testIndex(), filter)

	if result.Stats.ExcludedDocuments != 1 || result.Stats.Files != 2 {
		t.Fatalf("stats = %+v, want 1 excluded and 2 files", result.Stats)
	}
	for _, s := range result.Data.Symbols {
		if s.FilePath == "internal/store/repo.go" {
			t.Errorf("excluded symbol kept: %+v", s)
		}
	}
	if len(result.Data.CallEdges) != 0 || len(result.Data.Imports) != 0 {
		t.Errorf("edges into excluded document kept: %+v %+v", result.Data.CallEdges, result.Data.Imports)
	}
	// Save twice, Repo twice and Println from the remaining documents
	if result.Stats.ExternalReferences != 5 {
		t.Errorf("external refs = %d, want 5", result.Stats.ExternalReferences)
	}
}

func TestConvertDuplicateDefinition(t *testing.T) {
	index := &scippb.Index{
		Documents: []*scippb.Document{
			{RelativePath: "b.go", Occurrences: []*scippb.Occurrence{def(symHandle, 1, 5, 11)}},
			{RelativePath: "a.go", Occurrences: []*scippb.Occurrence{def(symHandle, 3, 5, 11), def(symHandle, 9, 5, 11)}},
		},
	}
	result := Convert(index, nil)
	if len(result.Data.Symbols) != 1 {
		t.Fatalf("symbols = %d, want 1", len(result.Data.Symbols))
	}
	got := result.Data.Symbols[0]
	if got.FilePath != "a.go" || got.StartLine != 4 {
		t.Errorf("kept definition = %+v, want first in a.go", got)
	}
}

func TestInnermostOwner(t *testing.T) {
	defs := []definition{
		{symbol: "outer", kind: KindClass, lines: lineRange{0, 0}, enclosing: lineRange{0, 40}, hasEnclosing: true},
		{symbol: "a", kind: KindMethod, lines: lineRange{2, 2}},
		{symbol: "b", kind: KindMethod, lines: lineRange{8, 8}, enclosing: lineRange{8, 12}, hasEnclosing: true},
		{symbol: "c", kind: KindFunction, lines: lineRange{50, 50}},
	}
	bodies := documentBodies(defs)

	tests := []struct {
		line int
		want string
	}{
		{0, "outer"},
		{3, "a"},
		{9, "b"},
		{15, "a"},
		{45, "a"},
		{50, "c"},
		{50 + DefaultMaxFunctionLines + 1, ""},
	}
	for _, tt := range tests {
		if got := innermostOwner(bodies, tt.line); got != tt.want {
			t.Errorf("innermostOwner(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestDetectLanguageFromPath(t *testing.T) {
	tests := map[string]string{
		"main.go":     "go",
		"app.tsx":     "typescript",
		"lib.py":      "python",
		"Main.java":   "java",
		"README.md":   "unknown",
		"src/x.rs":    "rust",
		"web/app.mjs": "javascript",
	}
	for path, want := range tests {
		if got := detectLanguageFromPath(path); got != want {
			t.Errorf("detectLanguageFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
