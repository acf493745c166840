package architecture

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"squint/internal/flows"
	"squint/internal/graph"
	"squint/internal/interactions"
	"squint/internal/process"
	"squint/internal/storage"
)

// fakeStore is an in-memory Store with the same ordering guarantees as the
// SQLite repositories.
type fakeStore struct {
	symbols []storage.Symbol
	edges   []graph.RawEdge
	imports []process.FileImport

	modules []storage.Module
	groups  *process.Groups

	interactions    []interactions.Interaction
	nextInteraction int64

	flows []flows.Flow

	runs []*storage.Run
}

func (s *fakeStore) Symbols(ctx context.Context) ([]storage.Symbol, error) {
	return append([]storage.Symbol(nil), s.symbols...), nil
}

func (s *fakeStore) CallEdges(ctx context.Context) ([]graph.RawEdge, error) {
	return append([]graph.RawEdge(nil), s.edges...), nil
}

func (s *fakeStore) FileImports(ctx context.Context) ([]process.FileImport, error) {
	return append([]process.FileImport(nil), s.imports...), nil
}

func (s *fakeStore) ReplaceModules(ctx context.Context, modules []storage.Module) error {
	s.modules = append([]storage.Module(nil), modules...)
	sort.Slice(s.modules, func(i, j int) bool { return s.modules[i].ID < s.modules[j].ID })
	s.groups = nil
	return nil
}

func (s *fakeStore) Modules(ctx context.Context) ([]storage.Module, error) {
	return append([]storage.Module(nil), s.modules...), nil
}

func (s *fakeStore) Membership(ctx context.Context) (map[graph.SymbolID]process.ModuleID, error) {
	out := make(map[graph.SymbolID]process.ModuleID)
	for _, m := range s.modules {
		for _, mem := range m.Members {
			out[mem.SymbolID] = m.ID
		}
	}
	return out, nil
}

func (s *fakeStore) ModuleFiles(ctx context.Context) ([]process.ModuleFiles, error) {
	fileOf := make(map[graph.SymbolID]process.FileID, len(s.symbols))
	for _, sym := range s.symbols {
		fileOf[sym.ID] = sym.FileID
	}

	var out []process.ModuleFiles
	for _, m := range s.modules {
		counts := make(map[process.FileID]int)
		for _, mem := range m.Members {
			counts[fileOf[mem.SymbolID]]++
		}
		mf := process.ModuleFiles{Module: m.ID}
		for f := range counts {
			mf.Files = append(mf.Files, f)
		}
		sort.Slice(mf.Files, func(i, j int) bool { return mf.Files[i] < mf.Files[j] })
		for _, f := range mf.Files {
			mf.Symbols = append(mf.Symbols, counts[f])
		}
		out = append(out, mf)
	}
	return out, nil
}

func (s *fakeStore) SetProcessGroups(ctx context.Context, groups *process.Groups) error {
	s.groups = groups
	return nil
}

func (s *fakeStore) ProcessGroups(ctx context.Context) (*process.Groups, error) {
	return s.groups, nil
}

func (s *fakeStore) Interactions(ctx context.Context, source interactions.Source) ([]interactions.Interaction, error) {
	var out []interactions.Interaction
	for _, it := range s.interactions {
		if source == "" || it.Source == source {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *fakeStore) ReplaceInteractions(ctx context.Context, list []interactions.Interaction) ([]interactions.Interaction, error) {
	type pair struct{ from, to process.ModuleID }
	ids := make(map[pair]int64, len(s.interactions))
	for _, it := range s.interactions {
		ids[pair{it.From, it.To}] = it.ID
	}

	out := make([]interactions.Interaction, 0, len(list))
	for _, it := range list {
		id, ok := ids[pair{it.From, it.To}]
		if !ok {
			s.nextInteraction++
			id = s.nextInteraction
		}
		it.ID = id
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	s.interactions = out
	return append([]interactions.Interaction(nil), out...), nil
}

func (s *fakeStore) addInferred(from, to process.ModuleID) int64 {
	s.nextInteraction++
	s.interactions = append(s.interactions, interactions.Interaction{
		ID:     s.nextInteraction,
		From:   from,
		To:     to,
		Source: interactions.SourceInferred,
	})
	return s.nextInteraction
}

func (s *fakeStore) Flows(ctx context.Context) ([]flows.Flow, error) {
	return append([]flows.Flow(nil), s.flows...), nil
}

func (s *fakeStore) DeleteFlows(ctx context.Context, ids []int64) error {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.flows[:0]
	for _, f := range s.flows {
		if !drop[f.ID] {
			kept = append(kept, f)
		}
	}
	s.flows = kept
	return nil
}

func (s *fakeStore) StartRun(ctx context.Context, kind, fingerprint string) (*storage.Run, error) {
	run := &storage.Run{
		ID:          fmt.Sprintf("run-%d", len(s.runs)+1),
		Kind:        kind,
		StartedAt:   time.Now(),
		Fingerprint: fingerprint,
	}
	s.runs = append(s.runs, run)
	return run, nil
}

func (s *fakeStore) FinishRun(ctx context.Context, run *storage.Run, stats interface{}) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	now := time.Now()
	run.FinishedAt = &now
	run.Stats = data
	return nil
}

func (s *fakeStore) LatestRun(ctx context.Context, kind string) (*storage.Run, error) {
	for i := len(s.runs) - 1; i >= 0; i-- {
		if r := s.runs[i]; r.Kind == kind && r.FinishedAt != nil {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}
