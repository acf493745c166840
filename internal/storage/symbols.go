package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"squint/internal/graph"
	"squint/internal/process"
)

// File is a source file known to the store
type File struct {
	ID       process.FileID `json:"id"`
	Path     string         `json:"path"`
	Language string         `json:"language,omitempty"`
}

// Symbol is a definition known to the store
type Symbol struct {
	ID         graph.SymbolID `json:"id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind,omitempty"`
	FileID     process.FileID `json:"fileId"`
	FilePath   string         `json:"filePath,omitempty"`
	StartLine  int            `json:"startLine,omitempty"`
	EndLine    int            `json:"endLine,omitempty"`
	ScipSymbol string         `json:"scipSymbol,omitempty"`
}

// IndexData is everything an ingest writes in one go
type IndexData struct {
	Files     []File
	Symbols   []Symbol
	CallEdges []graph.RawEdge
	Imports   []process.FileImport
}

// SymbolHit is one search result
type SymbolHit struct {
	Symbol
	ModuleID  *process.ModuleID `json:"moduleId,omitempty"`
	Module    string            `json:"module,omitempty"`
	MatchType string            `json:"matchType"` // exact, prefix or substring
}

// SymbolRepository reads and writes files and symbols
type SymbolRepository struct {
	db *DB
}

// NewSymbolRepository creates a new symbol repository
func NewSymbolRepository(db *DB) *SymbolRepository {
	return &SymbolRepository{db: db}
}

// ReplaceIndex swaps the ingested code graph for data in one transaction.
// Modules and interactions derived from the old graph are removed with it;
// flow candidates are kept.
func (r *SymbolRepository) ReplaceIndex(ctx context.Context, data IndexData) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"modules", "interactions", "file_imports", "call_edges", "symbols", "files"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		if err := insertFiles(ctx, tx, data.Files); err != nil {
			return err
		}
		if err := insertSymbols(ctx, tx, data.Symbols); err != nil {
			return err
		}
		if err := insertCallEdges(ctx, tx, data.CallEdges); err != nil {
			return err
		}
		return insertImports(ctx, tx, data.Imports)
	})
}

func insertFiles(ctx context.Context, tx *sql.Tx, files []File) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO files (id, path, language) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.ID, f.Path, f.Language); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
	}
	return nil
}

func insertSymbols(ctx context.Context, tx *sql.Tx, symbols []Symbol) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (id, name, kind, file_id, start_line, end_line, scip_symbol)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range symbols {
		var scip interface{}
		if s.ScipSymbol != "" {
			scip = s.ScipSymbol
		}
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.Kind, s.FileID, s.StartLine, s.EndLine, scip); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", s.Name, err)
		}
	}
	return nil
}

func insertCallEdges(ctx context.Context, tx *sql.Tx, edges []graph.RawEdge) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO call_edges (from_id, to_id, weight, min_line, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(from_id, to_id, source) DO UPDATE SET
			weight = weight + excluded.weight,
			min_line = MIN(min_line, excluded.min_line)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare call edge insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if e.Weight <= 0 {
			continue
		}
		source := e.Source
		if source == "" {
			source = graph.SourceImport
		}
		if _, err := stmt.ExecContext(ctx, e.From, e.To, e.Weight, e.MinLine, source); err != nil {
			return fmt.Errorf("failed to insert call edge %d->%d: %w", e.From, e.To, err)
		}
	}
	return nil
}

func insertImports(ctx context.Context, tx *sql.Tx, imports []process.FileImport) error {
	// A runtime import anywhere between two files makes the pair runtime.
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO file_imports (from_file_id, to_file_id, is_type_only)
		VALUES (?, ?, ?)
		ON CONFLICT(from_file_id, to_file_id) DO UPDATE SET
			is_type_only = is_type_only AND excluded.is_type_only
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare import insert: %w", err)
	}
	defer stmt.Close()

	for _, imp := range imports {
		if _, err := stmt.ExecContext(ctx, imp.From, imp.To, boolToInt(imp.IsTypeOnly)); err != nil {
			return fmt.Errorf("failed to insert import %d->%d: %w", imp.From, imp.To, err)
		}
	}
	return nil
}

// Counts returns the number of files and symbols.
func (r *SymbolRepository) Counts(ctx context.Context) (files, symbols int, err error) {
	err = r.db.QueryRow(ctx, "SELECT (SELECT COUNT(*) FROM files), (SELECT COUNT(*) FROM symbols)").Scan(&files, &symbols)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count symbols: %w", err)
	}
	return files, symbols, nil
}

const symbolColumns = `s.id, s.name, s.kind, s.file_id, f.path, s.start_line, s.end_line, COALESCE(s.scip_symbol, '')`

func scanSymbol(row interface{ Scan(...interface{}) error }, s *Symbol) error {
	return row.Scan(&s.ID, &s.Name, &s.Kind, &s.FileID, &s.FilePath, &s.StartLine, &s.EndLine, &s.ScipSymbol)
}

// All returns every symbol ordered by id.
func (r *SymbolRepository) All(ctx context.Context) ([]Symbol, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+symbolColumns+`
		FROM symbols s JOIN files f ON f.id = s.file_id
		ORDER BY s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var s Symbol
		if err := scanSymbol(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one symbol, or nil when it does not exist.
func (r *SymbolRepository) Get(ctx context.Context, id graph.SymbolID) (*Symbol, error) {
	var s Symbol
	err := scanSymbol(r.db.QueryRow(ctx, `
		SELECT `+symbolColumns+`
		FROM symbols s JOIN files f ON f.id = s.file_id
		WHERE s.id = ?
	`, id), &s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}
	return &s, nil
}

// Files returns every file ordered by id.
func (r *SymbolRepository) Files(ctx context.Context) ([]File, error) {
	rows, err := r.db.Query(ctx, "SELECT id, path, language FROM files ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Language); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Search finds symbols by name. Exact token matches rank first, then prefix
// matches, then plain substring matches, up to limit results in total.
func (r *SymbolRepository) Search(ctx context.Context, query string, limit int) ([]SymbolHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
	passes := []struct {
		matchType string
		where     string
		arg       string
	}{
		{"exact", "s.id IN (SELECT rowid FROM symbols_fts WHERE symbols_fts MATCH ?)", "name:" + quoted},
		{"prefix", "s.id IN (SELECT rowid FROM symbols_fts WHERE symbols_fts MATCH ?)", "name:" + quoted + " *"},
		{"substring", "s.name LIKE ? ESCAPE '\\'", "%" + escapeLike(query) + "%"},
	}

	seen := make(map[graph.SymbolID]bool)
	var hits []SymbolHit
	for _, p := range passes {
		if len(hits) >= limit {
			break
		}
		found, err := r.searchPass(ctx, p.where, p.arg, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to search symbols (%s): %w", p.matchType, err)
		}
		for _, h := range found {
			if seen[h.ID] || len(hits) >= limit {
				continue
			}
			seen[h.ID] = true
			h.MatchType = p.matchType
			hits = append(hits, h)
		}
	}
	return hits, nil
}

func (r *SymbolRepository) searchPass(ctx context.Context, where, arg string, limit int) ([]SymbolHit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+symbolColumns+`, mm.module_id, COALESCE(m.full_path, '')
		FROM symbols s
		JOIN files f ON f.id = s.file_id
		LEFT JOIN module_members mm ON mm.symbol_id = s.id
		LEFT JOIN modules m ON m.id = mm.module_id
		WHERE `+where+`
		ORDER BY length(s.name), s.id
		LIMIT ?
	`, arg, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SymbolHit
	for rows.Next() {
		var h SymbolHit
		var moduleID sql.NullInt64
		if err := rows.Scan(&h.ID, &h.Name, &h.Kind, &h.FileID, &h.FilePath, &h.StartLine, &h.EndLine, &h.ScipSymbol, &moduleID, &h.Module); err != nil {
			return nil, err
		}
		if moduleID.Valid {
			id := process.ModuleID(moduleID.Int64)
			h.ModuleID = &id
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
