package storage

import (
	"context"
	"fmt"

	"squint/internal/graph"
	"squint/internal/process"
)

// EdgeRepository reads call edges and file imports
type EdgeRepository struct {
	db *DB
}

// NewEdgeRepository creates a new edge repository
func NewEdgeRepository(db *DB) *EdgeRepository {
	return &EdgeRepository{db: db}
}

// CallEdges returns the union of internal and import call edges, one row per
// (from, to) with weights summed and the smallest line kept, ordered by
// (from, to).
func (r *EdgeRepository) CallEdges(ctx context.Context) ([]graph.RawEdge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT from_id, to_id, SUM(weight), MIN(min_line),
		       CASE WHEN COUNT(DISTINCT source) = 1 THEN MIN(source) ELSE '' END
		FROM call_edges
		GROUP BY from_id, to_id
		ORDER BY from_id, to_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load call edges: %w", err)
	}
	defer rows.Close()

	var out []graph.RawEdge
	for rows.Next() {
		var e graph.RawEdge
		if err := rows.Scan(&e.From, &e.To, &e.Weight, &e.MinLine, &e.Source); err != nil {
			return nil, fmt.Errorf("failed to scan call edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FileImports returns every file import ordered by (from, to).
func (r *EdgeRepository) FileImports(ctx context.Context) ([]process.FileImport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT from_file_id, to_file_id, is_type_only
		FROM file_imports
		ORDER BY from_file_id, to_file_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load file imports: %w", err)
	}
	defer rows.Close()

	var out []process.FileImport
	for rows.Next() {
		var imp process.FileImport
		var typeOnly int
		if err := rows.Scan(&imp.From, &imp.To, &typeOnly); err != nil {
			return nil, fmt.Errorf("failed to scan file import: %w", err)
		}
		imp.IsTypeOnly = typeOnly != 0
		out = append(out, imp)
	}
	return out, rows.Err()
}

// Counts returns the number of call edge rows and file imports.
func (r *EdgeRepository) Counts(ctx context.Context) (calls, imports int, err error) {
	err = r.db.QueryRow(ctx, "SELECT (SELECT COUNT(*) FROM call_edges), (SELECT COUNT(*) FROM file_imports)").Scan(&calls, &imports)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return calls, imports, nil
}
