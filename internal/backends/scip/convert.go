package scip

import (
	"path/filepath"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"

	"squint/internal/graph"
	"squint/internal/paths"
	"squint/internal/process"
	"squint/internal/storage"
)

// Stats summarises one conversion.
type Stats struct {
	Documents int `json:"documents"`
	Files     int `json:"files"`
	Symbols   int `json:"symbols"`
	CallEdges int `json:"callEdges"`
	Imports   int `json:"imports"`
	// ExcludedDocuments counts documents skipped by the path filter.
	ExcludedDocuments int `json:"excludedDocuments,omitempty"`
	// ExternalReferences counts references to symbols defined outside the
	// index, which produce no edges.
	ExternalReferences int    `json:"externalReferences"`
	Commit             string `json:"commit,omitempty"`
}

// Result is a converted index ready for the store.
type Result struct {
	Data  storage.IndexData
	Stats Stats
}

// definition is one in-repo symbol definition.
type definition struct {
	symbol       string
	file         process.FileID
	path         string
	kind         SymbolKind
	displayName  string
	lines        lineRange
	enclosing    lineRange
	hasEnclosing bool
}

// Convert turns a SCIP index into files, symbols, call edges and file
// imports. Documents the filter excludes are dropped together with their
// definitions, so references into them count as external.
//
// Files are numbered in path order and symbols in (path, line, symbol)
// order, so equal indexes convert to equal ids. A reference inside the body
// of a definition is a call edge from that definition; the edge source is
// internal when both ends share a file and import otherwise. Every
// cross-file reference also yields a file import, which stays type-only
// while all such references target types.
func Convert(index *scippb.Index, filter *PathFilter) *Result {
	result := &Result{}
	result.Stats.Documents = len(index.Documents)
	result.Stats.Commit = IndexedCommit(index)

	infos := make(map[string]*scippb.SymbolInformation)
	docs := make(map[string]*scippb.Document)
	for _, doc := range index.Documents {
		path := paths.NormalizePath(doc.RelativePath)
		if path == "" {
			continue
		}
		if filter.Excluded(path) {
			result.Stats.ExcludedDocuments++
			continue
		}
		if _, dup := docs[path]; !dup {
			docs[path] = doc
		}
		for _, info := range doc.Symbols {
			if _, ok := infos[info.Symbol]; !ok {
				infos[info.Symbol] = info
			}
		}
	}

	docPaths := make([]string, 0, len(docs))
	for p := range docs {
		docPaths = append(docPaths, p)
	}
	sort.Strings(docPaths)

	fileIDs := make(map[string]process.FileID, len(docPaths))
	for i, p := range docPaths {
		id := process.FileID(i + 1)
		fileIDs[p] = id
		result.Data.Files = append(result.Data.Files, storage.File{
			ID:       id,
			Path:     p,
			Language: documentLanguage(docs[p], p),
		})
	}

	// Definitions, first occurrence of each symbol wins
	defsByDoc := make(map[string][]definition, len(docPaths))
	defined := make(map[string]*definition)
	var ordered []*definition
	for _, p := range docPaths {
		for _, d := range documentDefinitions(docs[p], p, fileIDs[p], infos) {
			if _, ok := defined[d.symbol]; ok {
				continue
			}
			defsByDoc[p] = append(defsByDoc[p], d)
			defined[d.symbol] = nil
		}
		for i := range defsByDoc[p] {
			d := &defsByDoc[p][i]
			defined[d.symbol] = d
			ordered = append(ordered, d)
		}
	}

	bodiesByDoc := make(map[string][]bodyOwner, len(docPaths))
	bodyOf := make(map[string]lineRange)
	for _, p := range docPaths {
		bodies := documentBodies(defsByDoc[p])
		bodiesByDoc[p] = bodies
		for _, b := range bodies {
			bodyOf[b.symbol] = b.body
		}
	}

	symbolIDs := make(map[string]graph.SymbolID, len(ordered))
	for i, d := range ordered {
		id := graph.SymbolID(i + 1)
		symbolIDs[d.symbol] = id
		end := bodyOf[d.symbol].end
		if end < d.lines.end {
			end = d.lines.end
		}
		result.Data.Symbols = append(result.Data.Symbols, storage.Symbol{
			ID:         id,
			Name:       d.displayName,
			Kind:       string(d.kind),
			FileID:     d.file,
			FilePath:   d.path,
			StartLine:  d.lines.start + 1,
			EndLine:    end + 1,
			ScipSymbol: d.symbol,
		})
	}

	type edgeKey struct {
		from, to graph.SymbolID
		source   string
	}
	edges := make(map[edgeKey]*graph.RawEdge)
	imports := make(map[[2]process.FileID]bool)

	for _, p := range docPaths {
		fileID := fileIDs[p]
		bodies := bodiesByDoc[p]
		for _, occ := range docs[p].Occurrences {
			if occ.Symbol == "" || IsLocalSymbol(occ.Symbol) || occ.SymbolRoles&SymbolRoleDefinition != 0 {
				continue
			}
			callee := defined[occ.Symbol]
			if callee == nil {
				result.Stats.ExternalReferences++
				continue
			}
			lines, ok := occurrenceLines(occ.Range)
			if !ok {
				continue
			}

			if callee.file != fileID {
				key := [2]process.FileID{fileID, callee.file}
				typeOnly, seen := imports[key]
				if !seen {
					typeOnly = true
				}
				imports[key] = typeOnly && callee.kind.IsType()
			}

			caller := innermostOwner(bodies, lines.start)
			if caller == "" || caller == callee.symbol {
				continue
			}
			source := graph.SourceImport
			if callee.file == fileID {
				source = graph.SourceInternal
			}
			key := edgeKey{from: symbolIDs[caller], to: symbolIDs[callee.symbol], source: source}
			line := lines.start + 1
			if e := edges[key]; e != nil {
				e.Weight++
				if line < e.MinLine {
					e.MinLine = line
				}
				continue
			}
			edges[key] = &graph.RawEdge{From: key.from, To: key.to, Weight: 1, MinLine: line, Source: source}
		}
	}

	for _, e := range edges {
		result.Data.CallEdges = append(result.Data.CallEdges, *e)
	}
	sort.Slice(result.Data.CallEdges, func(i, j int) bool {
		a, b := result.Data.CallEdges[i], result.Data.CallEdges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Source < b.Source
	})

	for key, typeOnly := range imports {
		result.Data.Imports = append(result.Data.Imports, process.FileImport{From: key[0], To: key[1], IsTypeOnly: typeOnly})
	}
	sort.Slice(result.Data.Imports, func(i, j int) bool {
		a, b := result.Data.Imports[i], result.Data.Imports[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})

	result.Stats.Files = len(result.Data.Files)
	result.Stats.Symbols = len(result.Data.Symbols)
	result.Stats.CallEdges = len(result.Data.CallEdges)
	result.Stats.Imports = len(result.Data.Imports)
	return result
}

// documentDefinitions returns the in-repo definitions of one document in
// (line, symbol) order. Locals, packages and parameters are skipped.
func documentDefinitions(doc *scippb.Document, path string, file process.FileID, infos map[string]*scippb.SymbolInformation) []definition {
	var defs []definition
	seen := make(map[string]bool)
	for _, occ := range doc.Occurrences {
		if occ.SymbolRoles&SymbolRoleDefinition == 0 || occ.Symbol == "" || IsLocalSymbol(occ.Symbol) {
			continue
		}
		if seen[occ.Symbol] {
			continue
		}
		lines, ok := occurrenceLines(occ.Range)
		if !ok {
			continue
		}

		info := infos[occ.Symbol]
		kind, name := describeSymbol(occ.Symbol, info)
		if kind == KindPackage || kind == KindParameter {
			continue
		}
		seen[occ.Symbol] = true

		d := definition{
			symbol:      occ.Symbol,
			file:        file,
			path:        path,
			kind:        kind,
			displayName: name,
			lines:       lines,
		}
		if enc, ok := occurrenceLines(occ.EnclosingRange); ok {
			d.enclosing = enc
			d.hasEnclosing = true
		}
		defs = append(defs, d)
	}

	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].lines.start != defs[j].lines.start {
			return defs[i].lines.start < defs[j].lines.start
		}
		return defs[i].symbol < defs[j].symbol
	})
	return defs
}

// describeSymbol picks a kind and display name from the symbol information,
// falling back to the descriptor.
func describeSymbol(symbol string, info *scippb.SymbolInformation) (SymbolKind, string) {
	kind := KindUnknown
	name := ""
	if info != nil {
		kind = mapSCIPKind(info.Kind)
		name = info.DisplayName
	}

	parsed, err := parseGlobalSymbol(symbol)
	if err != nil {
		if name == "" {
			name = symbol
		}
		return kind, name
	}
	if kind == KindUnknown {
		kind = descriptorKind(parsed)
	}
	if name == "" {
		name = simpleName(parsed)
	}
	if name == "" {
		name = symbol
	}
	return kind, name
}

// documentLanguage prefers the indexer's language and falls back to the
// file extension.
func documentLanguage(doc *scippb.Document, path string) string {
	if doc.Language != "" {
		return strings.ToLower(doc.Language)
	}
	return detectLanguageFromPath(path)
}

// detectLanguageFromPath maps a file extension to a language name.
func detectLanguageFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".kt", ".kts":
		return "kotlin"
	case ".rb":
		return "ruby"
	case ".cs":
		return "csharp"
	case ".c", ".h":
		return "c"
	case ".cc", ".cpp", ".hpp":
		return "cpp"
	case ".dart":
		return "dart"
	default:
		return "unknown"
	}
}
