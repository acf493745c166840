package architecture

import (
	"context"

	"squint/internal/flows"
	"squint/internal/graph"
	"squint/internal/interactions"
	"squint/internal/process"
	"squint/internal/storage"
)

// Store is everything the engine reads and writes.
type Store interface {
	Symbols(ctx context.Context) ([]storage.Symbol, error)
	CallEdges(ctx context.Context) ([]graph.RawEdge, error)
	FileImports(ctx context.Context) ([]process.FileImport, error)

	ReplaceModules(ctx context.Context, modules []storage.Module) error
	Modules(ctx context.Context) ([]storage.Module, error)
	Membership(ctx context.Context) (map[graph.SymbolID]process.ModuleID, error)
	ModuleFiles(ctx context.Context) ([]process.ModuleFiles, error)
	SetProcessGroups(ctx context.Context, groups *process.Groups) error
	ProcessGroups(ctx context.Context) (*process.Groups, error)

	Interactions(ctx context.Context, source interactions.Source) ([]interactions.Interaction, error)
	ReplaceInteractions(ctx context.Context, list []interactions.Interaction) ([]interactions.Interaction, error)

	Flows(ctx context.Context) ([]flows.Flow, error)
	DeleteFlows(ctx context.Context, ids []int64) error

	StartRun(ctx context.Context, kind, fingerprint string) (*storage.Run, error)
	FinishRun(ctx context.Context, run *storage.Run, stats interface{}) error
	LatestRun(ctx context.Context, kind string) (*storage.Run, error)
}

// SQLStore adapts the storage repositories to Store.
type SQLStore struct {
	symbols      *storage.SymbolRepository
	edges        *storage.EdgeRepository
	modules      *storage.ModuleRepository
	interactions *storage.InteractionRepository
	flows        *storage.FlowRepository
	runs         *storage.RunRepository
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{
		symbols:      storage.NewSymbolRepository(db),
		edges:        storage.NewEdgeRepository(db),
		modules:      storage.NewModuleRepository(db),
		interactions: storage.NewInteractionRepository(db),
		flows:        storage.NewFlowRepository(db),
		runs:         storage.NewRunRepository(db),
	}
}

func (s *SQLStore) Symbols(ctx context.Context) ([]storage.Symbol, error) {
	return s.symbols.All(ctx)
}

func (s *SQLStore) CallEdges(ctx context.Context) ([]graph.RawEdge, error) {
	return s.edges.CallEdges(ctx)
}

func (s *SQLStore) FileImports(ctx context.Context) ([]process.FileImport, error) {
	return s.edges.FileImports(ctx)
}

func (s *SQLStore) ReplaceModules(ctx context.Context, modules []storage.Module) error {
	return s.modules.Replace(ctx, modules)
}

func (s *SQLStore) Modules(ctx context.Context) ([]storage.Module, error) {
	return s.modules.List(ctx)
}

func (s *SQLStore) Membership(ctx context.Context) (map[graph.SymbolID]process.ModuleID, error) {
	return s.modules.Membership(ctx)
}

func (s *SQLStore) ModuleFiles(ctx context.Context) ([]process.ModuleFiles, error) {
	return s.modules.ModuleFiles(ctx)
}

func (s *SQLStore) SetProcessGroups(ctx context.Context, groups *process.Groups) error {
	return s.modules.SetProcessGroups(ctx, groups)
}

func (s *SQLStore) ProcessGroups(ctx context.Context) (*process.Groups, error) {
	return s.modules.ProcessGroups(ctx)
}

func (s *SQLStore) Interactions(ctx context.Context, source interactions.Source) ([]interactions.Interaction, error) {
	if source == "" {
		return s.interactions.List(ctx)
	}
	return s.interactions.ListBySource(ctx, source)
}

func (s *SQLStore) ReplaceInteractions(ctx context.Context, list []interactions.Interaction) ([]interactions.Interaction, error) {
	return s.interactions.Replace(ctx, list)
}

func (s *SQLStore) Flows(ctx context.Context) ([]flows.Flow, error) {
	return s.flows.List(ctx)
}

func (s *SQLStore) DeleteFlows(ctx context.Context, ids []int64) error {
	return s.flows.Delete(ctx, ids)
}

func (s *SQLStore) StartRun(ctx context.Context, kind, fingerprint string) (*storage.Run, error) {
	return s.runs.Start(ctx, kind, fingerprint)
}

func (s *SQLStore) FinishRun(ctx context.Context, run *storage.Run, stats interface{}) error {
	return s.runs.Finish(ctx, run, stats)
}

func (s *SQLStore) LatestRun(ctx context.Context, kind string) (*storage.Run, error) {
	return s.runs.Latest(ctx, kind)
}
