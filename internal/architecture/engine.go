package architecture

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"

	"squint/internal/community"
	"squint/internal/errors"
	"squint/internal/flows"
	"squint/internal/graph"
	"squint/internal/interactions"
	"squint/internal/process"
	"squint/internal/slogutil"
	"squint/internal/storage"
)

// RootModuleID is the id of the module tree root.
const RootModuleID process.ModuleID = 1

// Engine runs the architecture pipeline against a Store.
type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{store: store, logger: logger, now: time.Now}
}

// DetectModules builds the symbol graph, partitions it into modules and
// replaces the stored module tree. Each community that meets the minimum
// size becomes a module under the root, with per-member cohesion, ranked key
// symbols and a layer.
func (e *Engine) DetectModules(ctx context.Context, opts Options) (*DetectResult, error) {
	start := e.now()

	symbols, err := e.store.Symbols(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load symbols", err)
	}
	if len(symbols) == 0 {
		return nil, errors.New(errors.StoreEmpty, "no symbols in the store", nil)
	}
	edges, err := e.store.CallEdges(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load call edges", err)
	}

	g := graph.Build(edges)
	for _, s := range symbols {
		g.AddNode(s.ID)
	}

	copts := opts.Community
	copts.Validate()
	res := community.Detect(g, copts)

	byID := make(map[graph.SymbolID]*storage.Symbol, len(symbols))
	for i := range symbols {
		byID[symbols[i].ID] = &symbols[i]
	}

	root := RootModuleID
	modules := []storage.Module{{
		ID:       root,
		FullPath: RootPath,
		Name:     RootPath,
		Depth:    0,
		Layer:    LayerUnknown.String(),
	}}

	names := newNameAllocator()
	for i, c := range res.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		files := make([]string, 0, len(c.Members))
		for _, id := range c.Members {
			if s := byID[id]; s != nil {
				files = append(files, s.FilePath)
			}
		}
		dir := dominantDirectory(files)
		name := names.allocate(baseName(dir))

		m := storage.Module{
			ID:       process.ModuleID(i) + 2,
			ParentID: &root,
			FullPath: modulePath(name),
			Name:     name,
			Depth:    1,
		}

		cohesion := community.Cohesion(g, c.Members)
		for _, id := range c.Members {
			m.Members = append(m.Members, storage.Member{SymbolID: id, Cohesion: cohesion[id]})
		}

		keys, err := g.KeySymbols(ctx, c.Members, opts.KeySymbols)
		if err != nil {
			return nil, fmt.Errorf("failed to rank key symbols of %s: %w", m.FullPath, err)
		}
		hints := []string{dir, name}
		for _, k := range keys {
			m.KeySymbols = append(m.KeySymbols, storage.KeySymbol{SymbolID: k.NodeID, Score: k.Score})
			if s := byID[k.NodeID]; s != nil {
				hints = append(hints, s.Name)
			}
		}

		layer, ok := opts.Layers.Lookup(m.FullPath, dir)
		if !ok {
			layer = InferLayer(hints...)
		}
		m.Layer = layer.String()

		modules = append(modules, m)
	}

	if err := e.store.ReplaceModules(ctx, modules); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to store modules", err)
	}

	stats := ModuleStats{
		Symbols:     len(symbols),
		Edges:       g.NumEdges(),
		Communities: len(res.Communities),
		Modules:     len(res.Modules),
		Unassigned:  len(res.Unassigned),
		Modularity:  res.Modularity,
		Iterations:  res.Iterations,
		Levels:      res.Levels,
		Converged:   res.Converged,
	}
	e.logger.Info("Module detection completed",
		"symbols", stats.Symbols,
		"edges", stats.Edges,
		"communities", stats.Communities,
		"modules", stats.Modules,
		"unassigned", stats.Unassigned,
		"modularity", stats.Modularity,
		"iterations", stats.Iterations,
		"converged", stats.Converged,
		"duration", e.now().Sub(start),
	)
	if !res.Converged {
		e.logger.Warn("Community detection hit the iteration cap", "maxIterations", copts.MaxIterations)
	}

	return &DetectResult{Stats: stats, Modules: modules}, nil
}

// ClassifyGroups assigns every module, including file-less ones such as the
// root, to a process group and stores the result. With classification disabled the stored groups are
// cleared and nil is returned.
func (e *Engine) ClassifyGroups(ctx context.Context, opts Options) (*process.Groups, error) {
	start := e.now()

	if !opts.ProcessEnabled {
		if err := e.store.SetProcessGroups(ctx, nil); err != nil {
			return nil, errors.New(errors.StoreUnavailable, "failed to clear process groups", err)
		}
		e.logger.Info("Process classification disabled")
		return nil, nil
	}

	moduleFiles, err := e.store.ModuleFiles(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load module files", err)
	}
	imports, err := e.store.FileImports(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load file imports", err)
	}

	groups := process.Classify(moduleFiles, imports)
	if err := e.store.SetProcessGroups(ctx, groups); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to store process groups", err)
	}

	e.logger.Info("Process classification completed",
		"modules", len(moduleFiles),
		"imports", len(imports),
		"groups", groups.GroupCount,
		"duration", e.now().Sub(start),
	)
	return groups, nil
}

// DeriveInteractions summarises symbol calls into module interactions,
// merges stored inferred interactions, gates them on process groups and
// replaces the stored set.
func (e *Engine) DeriveInteractions(ctx context.Context, opts Options) (*InteractionResult, error) {
	start := e.now()

	membership, err := e.store.Membership(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load module membership", err)
	}
	edges, err := e.store.CallEdges(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load call edges", err)
	}
	stored, err := e.store.Interactions(ctx, interactions.SourceInferred)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load inferred interactions", err)
	}
	modules, err := e.store.Modules(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load modules", err)
	}

	var groups *process.Groups
	if opts.ProcessEnabled {
		groups, err = e.store.ProcessGroups(ctx)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "failed to load process groups", err)
		}
	}

	known := make(map[process.ModuleID]bool, len(modules))
	for _, m := range modules {
		known[m.ID] = true
	}
	inferred := make([]interactions.Interaction, 0, len(stored))
	orphaned := 0
	for _, it := range stored {
		if !known[it.From] || !known[it.To] {
			orphaned++
			continue
		}
		inferred = append(inferred, it)
	}

	merged := interactions.Merge(interactions.Derive(edges, membership), inferred)

	var kept, dropped []interactions.Interaction
	if opts.GateInferred {
		kept, dropped = interactions.Gate(merged, groups)
	} else {
		kept = interactions.Annotate(merged, groups)
	}

	saved, err := e.store.ReplaceInteractions(ctx, kept)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to store interactions", err)
	}

	for _, it := range dropped {
		e.logger.Debug("Dropped cross-process interaction", "from", it.From, "to", it.To)
	}
	e.logger.Info("Interaction derivation completed",
		"interactions", len(saved),
		"inferred", len(inferred),
		"dropped", len(dropped),
		"orphaned", orphaned,
		"duration", e.now().Sub(start),
	)
	return &InteractionResult{Kept: saved, Dropped: dropped}, nil
}

// DedupFlows removes true duplicates, then redundant overlapping flows of
// the same tier, and deletes every removed flow from the store.
func (e *Engine) DedupFlows(ctx context.Context, opts Options) (*FlowResult, error) {
	start := e.now()

	candidates, err := e.store.Flows(ctx)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to load flows", err)
	}

	identical := flows.DedupIdenticalWithReport(candidates)
	overlapping := flows.DedupWithReport(identical.Kept, opts.Flows)

	ids := make([]int64, 0, len(identical.Dropped)+len(overlapping.Dropped))
	for _, d := range identical.Dropped {
		ids = append(ids, d.Dropped.ID)
	}
	for _, d := range overlapping.Dropped {
		ids = append(ids, d.Dropped.ID)
	}
	if err := e.store.DeleteFlows(ctx, ids); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to delete redundant flows", err)
	}

	for _, d := range overlapping.Dropped {
		e.logger.Debug("Dropped redundant flow",
			"flow", d.Dropped.Name,
			"keptBy", d.KeptBy.Name,
			"overlap", d.Overlap,
			"rule", string(d.Rule),
		)
	}
	e.logger.Info("Flow deduplication completed",
		"candidates", len(candidates),
		"kept", len(overlapping.Kept),
		"identical", len(identical.Dropped),
		"overlapping", len(overlapping.Dropped),
		"duration", e.now().Sub(start),
	)

	return &FlowResult{
		Kept:        overlapping.Kept,
		Identical:   identical.Dropped,
		Overlapping: overlapping.Dropped,
	}, nil
}

// Analyze runs every stage in order and records the run. When the inputs
// hash to the fingerprint of the last finished run nothing is recomputed,
// unless opts.Force is set.
func (e *Engine) Analyze(ctx context.Context, opts Options) (*AnalyzeResult, error) {
	start := e.now()

	before, err := e.Fingerprint(ctx, opts)
	if err != nil {
		return nil, err
	}
	if !opts.Force {
		last, err := e.store.LatestRun(ctx, storage.RunKindAnalyze)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "failed to load last run", err)
		}
		if last != nil && last.Fingerprint == before {
			e.logger.Info("Inputs unchanged, skipping analysis", "runId", last.ID, "fingerprint", before[:12])
			result := &AnalyzeResult{RunID: last.ID, Fingerprint: before, Skipped: true}
			if len(last.Stats) > 0 {
				if err := json.Unmarshal(last.Stats, &result.Stats); err != nil {
					e.logger.Warn("Failed to decode stats of last run", "runId", last.ID, "error", err.Error())
				}
			}
			return result, nil
		}
	}

	run, err := e.store.StartRun(ctx, storage.RunKindAnalyze, before)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to start run", err)
	}

	detected, err := e.DetectModules(ctx, opts)
	if err != nil {
		return nil, err
	}
	groups, err := e.ClassifyGroups(ctx, opts)
	if err != nil {
		return nil, err
	}
	derived, err := e.DeriveInteractions(ctx, opts)
	if err != nil {
		return nil, err
	}
	deduped, err := e.DedupFlows(ctx, opts)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		ModuleStats:         detected.Stats,
		Interactions:        len(derived.Kept),
		InteractionsDropped: len(derived.Dropped),
		FlowsKept:           len(deduped.Kept),
		FlowsDropped:        len(deduped.Identical) + len(deduped.Overlapping),
		DurationMs:          e.now().Sub(start).Milliseconds(),
	}
	if groups != nil {
		stats.ProcessGroups = groups.GroupCount
	}

	// The stored fingerprint describes the state after this run, so an
	// unchanged store skips next time even though dedup removed flows.
	after, err := e.Fingerprint(ctx, opts)
	if err != nil {
		return nil, err
	}
	run.Fingerprint = after
	if err := e.store.FinishRun(ctx, run, stats); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to finish run", err)
	}

	e.logger.Info("Analysis completed",
		"runId", run.ID,
		"modules", stats.Modules,
		"groups", stats.ProcessGroups,
		"interactions", stats.Interactions,
		"flows", stats.FlowsKept,
		"durationMs", stats.DurationMs,
	)

	dropped := make([]flows.Drop, 0, stats.FlowsDropped)
	dropped = append(dropped, deduped.Identical...)
	dropped = append(dropped, deduped.Overlapping...)
	return &AnalyzeResult{
		RunID:               run.ID,
		Fingerprint:         after,
		Stats:               stats,
		Groups:              groups,
		DroppedInteractions: derived.Dropped,
		DroppedFlows:        dropped,
	}, nil
}

// Fingerprint hashes the pipeline inputs: symbols, call edges, imports,
// flows, inferred interactions and options.
func (e *Engine) Fingerprint(ctx context.Context, opts Options) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}

	symbols, err := e.store.Symbols(ctx)
	if err != nil {
		return "", errors.New(errors.StoreUnavailable, "failed to load symbols", err)
	}
	writeInts(h, int64(len(symbols)))
	for _, s := range symbols {
		writeInts(h, int64(s.ID), int64(s.FileID))
		writeString(h, s.Name)
		writeString(h, s.FilePath)
	}

	edges, err := e.store.CallEdges(ctx)
	if err != nil {
		return "", errors.New(errors.StoreUnavailable, "failed to load call edges", err)
	}
	writeInts(h, int64(len(edges)))
	for _, ed := range edges {
		writeInts(h, int64(ed.From), int64(ed.To), int64(ed.Weight))
	}

	imports, err := e.store.FileImports(ctx)
	if err != nil {
		return "", errors.New(errors.StoreUnavailable, "failed to load file imports", err)
	}
	writeInts(h, int64(len(imports)))
	for _, im := range imports {
		typeOnly := int64(0)
		if im.IsTypeOnly {
			typeOnly = 1
		}
		writeInts(h, int64(im.From), int64(im.To), typeOnly)
	}

	candidates, err := e.store.Flows(ctx)
	if err != nil {
		return "", errors.New(errors.StoreUnavailable, "failed to load flows", err)
	}
	writeInts(h, int64(len(candidates)))
	for _, f := range candidates {
		writeInts(h, f.ID, int64(f.Tier), int64(len(f.DefinitionSteps)))
		writeString(h, f.ActionType)
		writeString(h, f.TargetEntity)
		set := f.InteractionSet()
		writeInts(h, int64(len(set)))
		for _, id := range set {
			writeInts(h, int64(id))
		}
	}

	inferred, err := e.store.Interactions(ctx, interactions.SourceInferred)
	if err != nil {
		return "", errors.New(errors.StoreUnavailable, "failed to load inferred interactions", err)
	}
	writeInts(h, int64(len(inferred)))
	for _, it := range inferred {
		writeInts(h, int64(it.From), int64(it.To))
	}

	optData, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}
	h.Write(optData)

	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeInts(h hash.Hash, values ...int64) {
	var buf [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
}

func writeString(h hash.Hash, s string) {
	writeInts(h, int64(len(s)))
	h.Write([]byte(s))
}
