package storage

import (
	"context"
	"database/sql"
	"fmt"

	"squint/internal/flows"
)

// FlowRepository stores flow candidates
type FlowRepository struct {
	db *DB
}

// NewFlowRepository creates a new flow repository
func NewFlowRepository(db *DB) *FlowRepository {
	return &FlowRepository{db: db}
}

// Insert stores candidates and returns them with their new ids. Input ids
// are ignored.
func (r *FlowRepository) Insert(ctx context.Context, candidates []flows.Flow) ([]flows.Flow, error) {
	out := make([]flows.Flow, 0, len(candidates))
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, f := range candidates {
			if f.Tier < 0 {
				return fmt.Errorf("flow %q has negative tier %d", f.Name, f.Tier)
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO flows (name, tier, action_type, target_entity) VALUES (?, ?, ?, ?)
			`, f.Name, f.Tier, nullString(f.ActionType), nullString(f.TargetEntity))
			if err != nil {
				return fmt.Errorf("failed to insert flow %q: %w", f.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read flow id: %w", err)
			}

			for _, iid := range f.InteractionSet() {
				if _, err := tx.ExecContext(ctx, "INSERT INTO flow_interactions (flow_id, interaction_id) VALUES (?, ?)", id, iid); err != nil {
					return fmt.Errorf("failed to insert flow interaction: %w", err)
				}
			}
			for i, st := range f.DefinitionSteps {
				var symbol interface{}
				if st.SymbolID != 0 {
					symbol = st.SymbolID
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO flow_steps (flow_id, step_order, symbol_id, description) VALUES (?, ?, ?, ?)
				`, id, i, symbol, st.Description); err != nil {
					return fmt.Errorf("failed to insert flow step: %w", err)
				}
			}

			f.ID = id
			out = append(out, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every flow ordered by id.
func (r *FlowRepository) List(ctx context.Context) ([]flows.Flow, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name, tier, action_type, target_entity FROM flows ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	var out []flows.Flow
	index := make(map[int64]int)
	for rows.Next() {
		var f flows.Flow
		var action, entity sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &f.Tier, &action, &entity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		f.ActionType = action.String
		f.TargetEntity = entity.String
		f.InteractionIDs = []flows.InteractionID{}
		index[f.ID] = len(out)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := r.attachInteractions(ctx, out, index); err != nil {
		return nil, err
	}
	if err := r.attachSteps(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FlowRepository) attachInteractions(ctx context.Context, out []flows.Flow, index map[int64]int) error {
	rows, err := r.db.Query(ctx, "SELECT flow_id, interaction_id FROM flow_interactions ORDER BY flow_id, interaction_id")
	if err != nil {
		return fmt.Errorf("failed to list flow interactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fid int64
		var iid flows.InteractionID
		if err := rows.Scan(&fid, &iid); err != nil {
			return fmt.Errorf("failed to scan flow interaction: %w", err)
		}
		if i, ok := index[fid]; ok {
			out[i].InteractionIDs = append(out[i].InteractionIDs, iid)
		}
	}
	return rows.Err()
}

func (r *FlowRepository) attachSteps(ctx context.Context, out []flows.Flow, index map[int64]int) error {
	rows, err := r.db.Query(ctx, "SELECT flow_id, COALESCE(symbol_id, 0), description FROM flow_steps ORDER BY flow_id, step_order")
	if err != nil {
		return fmt.Errorf("failed to list flow steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fid int64
		var st flows.Step
		if err := rows.Scan(&fid, &st.SymbolID, &st.Description); err != nil {
			return fmt.Errorf("failed to scan flow step: %w", err)
		}
		if i, ok := index[fid]; ok {
			out[i].DefinitionSteps = append(out[i].DefinitionSteps, st)
		}
	}
	return rows.Err()
}

// Delete hard-deletes flows by id; child rows go with them.
func (r *FlowRepository) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, "DELETE FROM flows WHERE id = ?", id); err != nil {
				return fmt.Errorf("failed to delete flow %d: %w", id, err)
			}
		}
		return nil
	})
}

// Count returns the number of flows.
func (r *FlowRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM flows").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count flows: %w", err)
	}
	return n, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
