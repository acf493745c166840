package storage

import (
	"context"
	"database/sql"
	"fmt"

	"squint/internal/interactions"
	"squint/internal/process"
)

// InteractionRepository stores module-level interactions
type InteractionRepository struct {
	db *DB
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Replace makes list the full interaction set. Rows are upserted on
// (from, to) so a pair keeps its id across runs, which keeps flow references
// valid; pairs missing from list are deleted. The stored rows are returned
// with ids, ordered by (from, to).
func (r *InteractionRepository) Replace(ctx context.Context, list []interactions.Interaction) ([]interactions.Interaction, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "CREATE TEMP TABLE IF NOT EXISTS keep_pairs (from_id INTEGER, to_id INTEGER)"); err != nil {
			return fmt.Errorf("failed to create temp table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM keep_pairs"); err != nil {
			return fmt.Errorf("failed to reset temp table: %w", err)
		}

		for _, it := range list {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO interactions (from_module_id, to_module_id, weight, call_sites, source, same_process)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(from_module_id, to_module_id) DO UPDATE SET
					weight = excluded.weight,
					call_sites = excluded.call_sites,
					source = excluded.source,
					same_process = excluded.same_process
			`, it.From, it.To, it.Weight, it.CallSites, string(it.Source), boolToInt(it.SameProcess)); err != nil {
				return fmt.Errorf("failed to upsert interaction %d->%d: %w", it.From, it.To, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO keep_pairs VALUES (?, ?)", it.From, it.To); err != nil {
				return fmt.Errorf("failed to record interaction pair: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			DELETE FROM interactions
			WHERE NOT EXISTS (
				SELECT 1 FROM keep_pairs k
				WHERE k.from_id = interactions.from_module_id AND k.to_id = interactions.to_module_id
			)
		`)
		if err != nil {
			return fmt.Errorf("failed to delete stale interactions: %w", err)
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM keep_pairs")
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.List(ctx)
}

// AddInferred records an interaction proposed without call evidence. An
// existing row for the pair is left untouched.
func (r *InteractionRepository) AddInferred(ctx context.Context, from, to process.ModuleID) (int64, error) {
	if from == to {
		return 0, fmt.Errorf("interaction endpoints must differ")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO interactions (from_module_id, to_module_id, source)
		VALUES (?, ?, 'inferred')
		ON CONFLICT(from_module_id, to_module_id) DO NOTHING
	`, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to add inferred interaction: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, "SELECT id FROM interactions WHERE from_module_id = ? AND to_module_id = ?", from, to).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to read interaction id: %w", err)
	}
	return id, nil
}

// List returns every interaction ordered by (from, to).
func (r *InteractionRepository) List(ctx context.Context) ([]interactions.Interaction, error) {
	return r.query(ctx, "")
}

// ListBySource returns the interactions of one source.
func (r *InteractionRepository) ListBySource(ctx context.Context, source interactions.Source) ([]interactions.Interaction, error) {
	return r.query(ctx, "WHERE source = ?", string(source))
}

func (r *InteractionRepository) query(ctx context.Context, where string, args ...interface{}) ([]interactions.Interaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, from_module_id, to_module_id, weight, call_sites, source, same_process
		FROM interactions `+where+`
		ORDER BY from_module_id, to_module_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var out []interactions.Interaction
	for rows.Next() {
		var it interactions.Interaction
		var source string
		var same int
		if err := rows.Scan(&it.ID, &it.From, &it.To, &it.Weight, &it.CallSites, &source, &same); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		it.Source = interactions.Source(source)
		it.SameProcess = same != 0
		out = append(out, it)
	}
	return out, rows.Err()
}

// Count returns the number of interactions.
func (r *InteractionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM interactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return n, nil
}
