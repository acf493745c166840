package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"squint/internal/errors"
	"squint/internal/graph"
	"squint/internal/output"
	"squint/internal/process"
	"squint/internal/slogutil"
	"squint/internal/storage"
)

// Exporter builds architecture snapshots from the store.
type Exporter struct {
	db       *storage.DB
	repoRoot string
	logger   *slog.Logger
	now      func() time.Time
}

// NewExporter creates a new exporter
func NewExporter(db *storage.DB, repoRoot string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Exporter{
		db:       db,
		repoRoot: repoRoot,
		logger:   logger,
		now:      time.Now,
	}
}

// Build reads the stored architecture into a snapshot.
func (e *Exporter) Build(ctx context.Context, opts Options) (*Snapshot, error) {
	symbolRepo := storage.NewSymbolRepository(e.db)
	moduleRepo := storage.NewModuleRepository(e.db)

	symbols, err := symbolRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	files, err := symbolRepo.Files(ctx)
	if err != nil {
		return nil, err
	}
	modules, err := moduleRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := moduleRepo.ProcessGroups(ctx)
	if err != nil {
		return nil, err
	}
	membership, err := moduleRepo.Membership(ctx)
	if err != nil {
		return nil, err
	}
	interactions, err := storage.NewInteractionRepository(e.db).List(ctx)
	if err != nil {
		return nil, err
	}
	flowList, err := storage.NewFlowRepository(e.db).List(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := storage.NewEdgeRepository(e.db).CallEdges(ctx)
	if err != nil {
		return nil, err
	}
	run, err := storage.NewRunRepository(e.db).Latest(ctx, storage.RunKindAnalyze)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Building export snapshot",
		"symbols", len(symbols),
		"modules", len(modules),
		"interactions", len(interactions),
		"flows", len(flowList),
	)

	byID := make(map[graph.SymbolID]*storage.Symbol, len(symbols))
	for i := range symbols {
		byID[symbols[i].ID] = &symbols[i]
	}
	pathOf := make(map[process.ModuleID]string, len(modules))
	for _, m := range modules {
		pathOf[m.ID] = m.FullPath
	}
	modulePath := func(id process.ModuleID) string {
		if p, ok := pathOf[id]; ok {
			return p
		}
		return fmt.Sprintf("#%d", id)
	}

	snap := &Snapshot{
		Metadata: Metadata{
			Repo:        filepath.Base(e.repoRoot),
			Generated:   e.now().UTC().Format(time.RFC3339),
			SymbolCount: len(symbols),
			FileCount:   len(files),
			ModuleCount: len(modules),
		},
		Modules:      make([]Module, 0, len(modules)),
		Groups:       make([]Group, 0),
		Interactions: make([]Interaction, 0, len(interactions)),
		Flows:        make([]Flow, 0, len(flowList)),
	}
	if run != nil {
		snap.Metadata.RunID = run.ID
		snap.Metadata.Fingerprint = run.Fingerprint
	}

	for _, m := range modules {
		snap.Modules = append(snap.Modules, exportModule(m, byID, opts.IncludeMembers))
	}

	if groups != nil {
		snap.Metadata.GroupCount = groups.GroupCount
		for id := 0; id < groups.GroupCount; id++ {
			g := Group{ID: id}
			for _, m := range groups.Members(process.GroupID(id)) {
				g.Modules = append(g.Modules, modulePath(m))
			}
			snap.Groups = append(snap.Groups, g)
		}
	}

	for _, it := range interactions {
		snap.Interactions = append(snap.Interactions, Interaction{
			ID:          it.ID,
			From:        modulePath(it.From),
			To:          modulePath(it.To),
			Weight:      it.Weight,
			CallSites:   it.CallSites,
			Source:      string(it.Source),
			SameProcess: it.SameProcess,
		})
	}

	snap.Bridges = detectBridges(edges, membership, byID, modulePath)

	for _, f := range flowList {
		out := Flow{
			ID:           f.ID,
			Name:         f.Name,
			Tier:         f.Tier,
			ActionType:   f.ActionType,
			TargetEntity: f.TargetEntity,
			Interactions: make([]int64, 0, len(f.InteractionIDs)),
		}
		for _, id := range f.InteractionSet() {
			out.Interactions = append(out.Interactions, int64(id))
		}
		for _, s := range f.DefinitionSteps {
			out.Steps = append(out.Steps, s.Description)
		}
		snap.Flows = append(snap.Flows, out)
	}

	return snap, nil
}

func exportModule(m storage.Module, byID map[graph.SymbolID]*storage.Symbol, includeMembers bool) Module {
	out := Module{
		ID:       int64(m.ID),
		FullPath: m.FullPath,
		Name:     m.Name,
		Depth:    m.Depth,
		Layer:    m.Layer,
	}
	if m.ParentID != nil {
		out.ParentID = int64(*m.ParentID)
	}
	if m.ProcessGroup != nil {
		g := int(*m.ProcessGroup)
		out.ProcessGroup = &g
	}

	files := make([]string, 0)
	seen := make(map[string]bool)
	for _, mem := range m.Members {
		s := byID[mem.SymbolID]
		if s == nil {
			continue
		}
		if !seen[s.FilePath] {
			seen[s.FilePath] = true
			files = append(files, s.FilePath)
		}
		if includeMembers {
			out.Members = append(out.Members, Member{
				ID:       int64(s.ID),
				Name:     s.Name,
				Kind:     s.Kind,
				File:     s.FilePath,
				Line:     s.StartLine,
				Cohesion: output.RoundFloat(mem.Cohesion),
			})
		}
	}
	sort.Strings(files)
	if len(files) > 0 {
		out.Files = files
	}

	for _, k := range m.KeySymbols {
		name := fmt.Sprintf("#%d", k.SymbolID)
		if s := byID[k.SymbolID]; s != nil {
			name = s.Name
		}
		out.KeySymbols = append(out.KeySymbols, KeySymbol{ID: int64(k.SymbolID), Name: name, Score: output.RoundFloat(k.Score)})
	}
	return out
}

// Encode serializes a snapshot in the given format.
func Encode(snap *Snapshot, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		data, err := output.DeterministicEncodeIndented(snap, "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(snap)
	case FormatText:
		return []byte(FormatOrganizedText(NewOrganizer(snap).Organize())), nil
	default:
		return nil, errors.Newf(errors.InvalidParameter, "unknown export format %q", format)
	}
}

// Write encodes snap to w, zstd-compressed when opts.Compress is set.
func (e *Exporter) Write(w io.Writer, snap *Snapshot, opts Options) error {
	data, err := Encode(snap, opts.Format)
	if err != nil {
		if errors.Is(err, errors.InvalidParameter) {
			return err
		}
		return errors.New(errors.ExportFailed, "failed to encode snapshot", err)
	}

	if !opts.Compress {
		if _, err := w.Write(data); err != nil {
			return errors.New(errors.ExportFailed, "failed to write snapshot", err)
		}
		return nil
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return errors.New(errors.ExportFailed, "failed to create zstd encoder", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return errors.New(errors.ExportFailed, "failed to compress snapshot", err)
	}
	if err := enc.Close(); err != nil {
		return errors.New(errors.ExportFailed, "failed to flush compressed snapshot", err)
	}

	e.logger.Debug("Snapshot compressed", "raw", len(data))
	return nil
}

// Decompress reverses Write's compression.
func Decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}
