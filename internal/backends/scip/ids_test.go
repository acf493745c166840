package scip

import "testing"

func TestParseGlobalSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		scheme  string
		name    string
		wantErr bool
	}{
		{"scip-go gomod squint v1 `squint/internal/graph`/Build().", "scip-go", "Build", false},
		{"scip-typescript npm pkg 1.0.0 src/`index.ts`/", "scip-typescript", "index.ts", false},
		{"", "", "", true},
		{"local 3", "", "", true},
	}
	for _, tt := range tests {
		got, err := parseGlobalSymbol(tt.symbol)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseGlobalSymbol(%q) expected error", tt.symbol)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGlobalSymbol(%q) error: %v", tt.symbol, err)
			continue
		}
		if got.Scheme != tt.scheme || simpleName(got) != tt.name {
			t.Errorf("parseGlobalSymbol(%q) = scheme %q name %q", tt.symbol, got.Scheme, simpleName(got))
		}
	}
}

func TestDescriptorKind(t *testing.T) {
	const prefix = "scip-go gomod squint v1 "
	tests := []struct {
		descriptor string
		name       string
		kind       SymbolKind
	}{
		{"`squint/internal/graph`/Build().", "Build", KindFunction},
		{"`squint/internal/graph`/Graph#AddEdge().", "AddEdge", KindMethod},
		{"`squint/internal/graph`/Graph#", "Graph", KindClass},
		{"`squint/internal/graph`/Graph#nodes.", "nodes", KindField},
		{"`squint/internal/graph`/MaxDepth.", "MaxDepth", KindVariable},
		{"`squint/internal/graph`/DEFAULT_LIMIT.", "DEFAULT_LIMIT", KindConstant},
		{"`squint/internal/graph`/", "squint/internal/graph", KindPackage},
		{"`squint/internal/graph`/Build().(edges)", "edges", KindParameter},
	}
	for _, tt := range tests {
		parsed, err := parseGlobalSymbol(prefix + tt.descriptor)
		if err != nil {
			t.Errorf("parseGlobalSymbol(%q) error: %v", tt.descriptor, err)
			continue
		}
		if got := descriptorKind(parsed); got != tt.kind {
			t.Errorf("descriptorKind(%q) = %q, want %q", tt.descriptor, got, tt.kind)
		}
		if got := simpleName(parsed); got != tt.name {
			t.Errorf("simpleName(%q) = %q, want %q", tt.descriptor, got, tt.name)
		}
	}
}

func TestIsLocalSymbol(t *testing.T) {
	if !IsLocalSymbol("local 12") {
		t.Error("local 12 should be local")
	}
	if IsLocalSymbol("scip-go gomod squint v1 `squint`/local.") {
		t.Error("global symbol reported as local")
	}
}
