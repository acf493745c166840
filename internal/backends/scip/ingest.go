package scip

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"squint/internal/errors"
	"squint/internal/slogutil"
	"squint/internal/storage"
)

// IngestResult describes one ingest run.
type IngestResult struct {
	RunID       string `json:"runId,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Skipped     bool   `json:"skipped"`
	Stats       Stats  `json:"stats"`
}

// IngestOptions controls a single ingest.
type IngestOptions struct {
	// Force ingests even when the index and filter are unchanged.
	Force bool
	// Filter excludes documents by path. Nil keeps every document.
	Filter *PathFilter
}

// Ingester loads SCIP indexes into the store.
type Ingester struct {
	symbols *storage.SymbolRepository
	runs    *storage.RunRepository
	logger  *slog.Logger
}

// NewIngester creates an ingester writing to db.
func NewIngester(db *storage.DB, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Ingester{
		symbols: storage.NewSymbolRepository(db),
		runs:    storage.NewRunRepository(db),
		logger:  logger,
	}
}

// Ingest replaces the store's symbols, files, call edges and imports with
// the contents of the index at path. An index whose bytes and exclude
// patterns match the last ingest is skipped unless opts.Force is set. Replacing the index clears
// modules and interactions, which the next analysis rebuilds.
func (in *Ingester) Ingest(ctx context.Context, path string, opts IngestOptions) (*IngestResult, error) {
	start := time.Now()

	data, err := ReadIndex(path)
	if err != nil {
		return nil, err
	}
	fingerprint := ingestFingerprint(data, opts.Filter.Patterns())

	if !opts.Force {
		last, err := in.runs.Latest(ctx, storage.RunKindIngest)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "Failed to read last ingest run", err)
		}
		if last != nil && last.Fingerprint == fingerprint {
			in.logger.Info("Index unchanged, skipping ingest",
				"path", path,
				"runId", last.ID,
			)
			return &IngestResult{RunID: last.ID, Fingerprint: fingerprint, Skipped: true}, nil
		}
	}

	index, err := LoadIndex(path)
	if err != nil {
		return nil, err
	}
	converted := Convert(index, opts.Filter)

	run, err := in.runs.Start(ctx, storage.RunKindIngest, fingerprint)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "Failed to record ingest run", err)
	}
	if err := in.symbols.ReplaceIndex(ctx, converted.Data); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "Failed to write index data", err)
	}
	if err := in.runs.Finish(ctx, run, converted.Stats); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "Failed to finish ingest run", err)
	}

	in.logger.Info("Ingest completed",
		"path", path,
		"files", converted.Stats.Files,
		"symbols", converted.Stats.Symbols,
		"callEdges", converted.Stats.CallEdges,
		"imports", converted.Stats.Imports,
		"externalRefs", converted.Stats.ExternalReferences,
		"excludedDocs", converted.Stats.ExcludedDocuments,
		"commit", converted.Stats.Commit,
		"duration", time.Since(start),
	)

	return &IngestResult{RunID: run.ID, Fingerprint: fingerprint, Stats: converted.Stats}, nil
}

func ingestFingerprint(data []byte, patterns []string) string {
	h, _ := blake2b.New256(nil)
	h.Write(data)
	for _, p := range patterns {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
