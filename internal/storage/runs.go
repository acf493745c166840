package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run kinds
const (
	RunKindIngest  = "ingest"
	RunKindAnalyze = "analyze"
)

// Run is one recorded ingest or analysis
type Run struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  *time.Time      `json:"finishedAt,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Stats       json.RawMessage `json:"stats,omitempty"`
}

// RunRepository records pipeline runs
type RunRepository struct {
	db  *DB
	now func() time.Time
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// Start records a new unfinished run.
func (r *RunRepository) Start(ctx context.Context, kind, fingerprint string) (*Run, error) {
	run := &Run{
		ID:          uuid.New().String(),
		Kind:        kind,
		StartedAt:   r.now().UTC().Truncate(time.Second),
		Fingerprint: fingerprint,
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO analysis_runs (id, kind, started_at, fingerprint) VALUES (?, ?, ?, ?)
	`, run.ID, run.Kind, run.StartedAt.Format(time.RFC3339), run.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// Finish marks run finished and stores stats as JSON together with the
// run's current fingerprint.
func (r *RunRepository) Finish(ctx context.Context, run *Run, stats interface{}) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode run stats: %w", err)
	}
	finished := r.now().UTC().Truncate(time.Second)

	_, err = r.db.Exec(ctx, `
		UPDATE analysis_runs SET finished_at = ?, fingerprint = ?, stats_json = ? WHERE id = ?
	`, finished.Format(time.RFC3339), run.Fingerprint, string(data), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	run.FinishedAt = &finished
	run.Stats = data
	return nil
}

// Latest returns the most recent finished run of kind, or nil.
func (r *RunRepository) Latest(ctx context.Context, kind string) (*Run, error) {
	runs, err := r.list(ctx, "WHERE kind = ? AND finished_at IS NOT NULL", 1, kind)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// List returns up to limit runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.list(ctx, "", limit)
}

func (r *RunRepository) list(ctx context.Context, where string, limit int, args ...interface{}) ([]Run, error) {
	args = append(args, limit)
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, started_at, finished_at, fingerprint, stats_json
		FROM analysis_runs `+where+`
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var started string
		var finished sql.NullString
		var stats string
		if err := rows.Scan(&run.ID, &run.Kind, &started, &finished, &run.Fingerprint, &stats); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, fmt.Errorf("invalid started_at format: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(time.RFC3339, finished.String)
			if err != nil {
				return nil, fmt.Errorf("invalid finished_at format: %w", err)
			}
			run.FinishedAt = &t
		}
		run.Stats = json.RawMessage(stats)
		out = append(out, run)
	}
	return out, rows.Err()
}
