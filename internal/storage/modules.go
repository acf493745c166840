package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"squint/internal/graph"
	"squint/internal/process"
)

// Module is one row of the module tree with its members
type Module struct {
	ID           process.ModuleID  `json:"id"`
	ParentID     *process.ModuleID `json:"parentId,omitempty"`
	FullPath     string            `json:"fullPath"`
	Name         string            `json:"name"`
	Depth        int               `json:"depth"`
	Layer        string            `json:"layer"`
	ProcessGroup *process.GroupID  `json:"processGroup,omitempty"`
	Members      []Member          `json:"members,omitempty"`
	KeySymbols   []KeySymbol       `json:"keySymbols,omitempty"`
}

// Member is a symbol assigned to a module
type Member struct {
	SymbolID graph.SymbolID `json:"symbolId"`
	Cohesion float64        `json:"cohesion"`
}

// KeySymbol is a ranked anchor symbol of a module
type KeySymbol struct {
	SymbolID graph.SymbolID `json:"symbolId"`
	Score    float64        `json:"score"`
}

// ModuleRepository stores the inferred module tree
type ModuleRepository struct {
	db *DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// Replace drops the current module tree and writes modules in its place.
// Parents must appear in modules; rows are written in depth order.
func (r *ModuleRepository) Replace(ctx context.Context, modules []Module) error {
	ordered := make([]Module, len(modules))
	copy(ordered, modules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Depth != ordered[j].Depth {
			return ordered[i].Depth < ordered[j].Depth
		}
		return ordered[i].ID < ordered[j].ID
	})

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM modules"); err != nil {
			return fmt.Errorf("failed to clear modules: %w", err)
		}

		for _, m := range ordered {
			layer := m.Layer
			if layer == "" {
				layer = "unknown"
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO modules (id, parent_id, full_path, name, depth, layer, process_group)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, m.ID, nullModuleID(m.ParentID), m.FullPath, m.Name, m.Depth, layer, nullGroupID(m.ProcessGroup)); err != nil {
				return fmt.Errorf("failed to insert module %s: %w", m.FullPath, err)
			}

			for _, mem := range m.Members {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO module_members (module_id, symbol_id, cohesion) VALUES (?, ?, ?)
				`, m.ID, mem.SymbolID, mem.Cohesion); err != nil {
					return fmt.Errorf("failed to insert member %d of %s: %w", mem.SymbolID, m.FullPath, err)
				}
			}

			for rank, ks := range m.KeySymbols {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO module_key_symbols (module_id, rank, symbol_id, score) VALUES (?, ?, ?, ?)
				`, m.ID, rank, ks.SymbolID, ks.Score); err != nil {
					return fmt.Errorf("failed to insert key symbol of %s: %w", m.FullPath, err)
				}
			}
		}
		return nil
	})
}

// List returns every module ordered by id, with members and key symbols.
func (r *ModuleRepository) List(ctx context.Context) ([]Module, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, parent_id, full_path, name, depth, layer, process_group
		FROM modules
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	var modules []Module
	index := make(map[process.ModuleID]int)
	for rows.Next() {
		var m Module
		var parent, group sql.NullInt64
		if err := rows.Scan(&m.ID, &parent, &m.FullPath, &m.Name, &m.Depth, &m.Layer, &group); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		if parent.Valid {
			p := process.ModuleID(parent.Int64)
			m.ParentID = &p
		}
		if group.Valid {
			g := process.GroupID(group.Int64)
			m.ProcessGroup = &g
		}
		index[m.ID] = len(modules)
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := r.attachMembers(ctx, modules, index); err != nil {
		return nil, err
	}
	if err := r.attachKeySymbols(ctx, modules, index); err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *ModuleRepository) attachMembers(ctx context.Context, modules []Module, index map[process.ModuleID]int) error {
	rows, err := r.db.Query(ctx, "SELECT module_id, symbol_id, cohesion FROM module_members ORDER BY module_id, symbol_id")
	if err != nil {
		return fmt.Errorf("failed to list module members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id process.ModuleID
		var mem Member
		if err := rows.Scan(&id, &mem.SymbolID, &mem.Cohesion); err != nil {
			return fmt.Errorf("failed to scan module member: %w", err)
		}
		if i, ok := index[id]; ok {
			modules[i].Members = append(modules[i].Members, mem)
		}
	}
	return rows.Err()
}

func (r *ModuleRepository) attachKeySymbols(ctx context.Context, modules []Module, index map[process.ModuleID]int) error {
	rows, err := r.db.Query(ctx, "SELECT module_id, symbol_id, score FROM module_key_symbols ORDER BY module_id, rank")
	if err != nil {
		return fmt.Errorf("failed to list key symbols: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id process.ModuleID
		var ks KeySymbol
		if err := rows.Scan(&id, &ks.SymbolID, &ks.Score); err != nil {
			return fmt.Errorf("failed to scan key symbol: %w", err)
		}
		if i, ok := index[id]; ok {
			modules[i].KeySymbols = append(modules[i].KeySymbols, ks)
		}
	}
	return rows.Err()
}

// Membership returns symbol -> module for every assigned symbol.
func (r *ModuleRepository) Membership(ctx context.Context) (map[graph.SymbolID]process.ModuleID, error) {
	rows, err := r.db.Query(ctx, "SELECT symbol_id, module_id FROM module_members")
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	defer rows.Close()

	out := make(map[graph.SymbolID]process.ModuleID)
	for rows.Next() {
		var s graph.SymbolID
		var m process.ModuleID
		if err := rows.Scan(&s, &m); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out[s] = m
	}
	return out, rows.Err()
}

// ModuleFiles returns every module with the files holding its members and
// the member count per file, ordered by module id with files ascending.
// Modules without members, such as the root, come back with no files.
func (r *ModuleRepository) ModuleFiles(ctx context.Context) ([]process.ModuleFiles, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, s.file_id, COUNT(s.id)
		FROM modules m
		LEFT JOIN module_members mm ON mm.module_id = m.id
		LEFT JOIN symbols s ON s.id = mm.symbol_id
		GROUP BY m.id, s.file_id
		ORDER BY m.id, s.file_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load module files: %w", err)
	}
	defer rows.Close()

	var out []process.ModuleFiles
	for rows.Next() {
		var m process.ModuleID
		var f sql.NullInt64
		var n int
		if err := rows.Scan(&m, &f, &n); err != nil {
			return nil, fmt.Errorf("failed to scan module file: %w", err)
		}
		if k := len(out); k == 0 || out[k-1].Module != m {
			out = append(out, process.ModuleFiles{Module: m})
		}
		if !f.Valid {
			continue
		}
		last := &out[len(out)-1]
		last.Files = append(last.Files, process.FileID(f.Int64))
		last.Symbols = append(last.Symbols, n)
	}
	return out, rows.Err()
}

// SetProcessGroups stores a classification. Modules absent from groups are
// left without a group.
func (r *ModuleRepository) SetProcessGroups(ctx context.Context, groups *process.Groups) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE modules SET process_group = NULL"); err != nil {
			return fmt.Errorf("failed to clear process groups: %w", err)
		}
		if groups == nil {
			return nil
		}
		for m, g := range groups.ModuleToGroup {
			if _, err := tx.ExecContext(ctx, "UPDATE modules SET process_group = ? WHERE id = ?", g, m); err != nil {
				return fmt.Errorf("failed to set process group of module %d: %w", m, err)
			}
		}
		return nil
	})
}

// ProcessGroups rebuilds the stored classification. It returns nil when no
// module has a group.
func (r *ModuleRepository) ProcessGroups(ctx context.Context) (*process.Groups, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, process_group FROM modules
		WHERE process_group IS NOT NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load process groups: %w", err)
	}
	defer rows.Close()

	groups := &process.Groups{
		ModuleToGroup:  make(map[process.ModuleID]process.GroupID),
		GroupToModules: make(map[process.GroupID][]process.ModuleID),
	}
	for rows.Next() {
		var m process.ModuleID
		var g process.GroupID
		if err := rows.Scan(&m, &g); err != nil {
			return nil, fmt.Errorf("failed to scan process group: %w", err)
		}
		groups.ModuleToGroup[m] = g
		groups.GroupToModules[g] = append(groups.GroupToModules[g], m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups.ModuleToGroup) == 0 {
		return nil, nil
	}
	groups.GroupCount = len(groups.GroupToModules)
	return groups, nil
}

// SetLayers stores layer names per module.
func (r *ModuleRepository) SetLayers(ctx context.Context, layers map[process.ModuleID]string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for m, layer := range layers {
			if _, err := tx.ExecContext(ctx, "UPDATE modules SET layer = ? WHERE id = ?", layer, m); err != nil {
				return fmt.Errorf("failed to set layer of module %d: %w", m, err)
			}
		}
		return nil
	})
}

// FindByPath returns a module by full path, or nil.
func (r *ModuleRepository) FindByPath(ctx context.Context, fullPath string) (*Module, error) {
	var m Module
	var parent, group sql.NullInt64
	err := r.db.QueryRow(ctx, `
		SELECT id, parent_id, full_path, name, depth, layer, process_group
		FROM modules WHERE full_path = ?
	`, fullPath).Scan(&m.ID, &parent, &m.FullPath, &m.Name, &m.Depth, &m.Layer, &group)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find module: %w", err)
	}
	if parent.Valid {
		p := process.ModuleID(parent.Int64)
		m.ParentID = &p
	}
	if group.Valid {
		g := process.GroupID(group.Int64)
		m.ProcessGroup = &g
	}
	return &m, nil
}

// Count returns the number of modules.
func (r *ModuleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM modules").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count modules: %w", err)
	}
	return n, nil
}

func nullModuleID(id *process.ModuleID) interface{} {
	if id == nil {
		return nil
	}
	return int64(*id)
}

func nullGroupID(id *process.GroupID) interface{} {
	if id == nil {
		return nil
	}
	return int64(*id)
}
