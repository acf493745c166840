// Package architecture runs the inference pipeline over the store: module
// detection, process-group classification, interaction derivation and flow
// deduplication.
package architecture

import (
	"squint/internal/community"
	"squint/internal/config"
	"squint/internal/flows"
	"squint/internal/interactions"
	"squint/internal/process"
	"squint/internal/storage"
)

// Options configures a pipeline run.
type Options struct {
	Community community.Options `json:"community"`
	Flows     flows.Options     `json:"flows"`

	// ProcessEnabled turns process-group classification on. When off, no
	// groups are stored and every pair of modules counts as same-process.
	ProcessEnabled bool `json:"processEnabled"`

	// GateInferred drops inferred interactions that cross process groups.
	GateInferred bool `json:"gateInferred"`

	// KeySymbols is the number of anchor symbols ranked per module.
	KeySymbols int `json:"keySymbols"`

	// Layers holds manual layer assignments; nil means none.
	Layers *LayerOverrides `json:"layers,omitempty"`

	// Force reruns Analyze even when the inputs are unchanged.
	Force bool `json:"-"`
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Community:      community.DefaultOptions(),
		Flows:          flows.DefaultOptions(),
		ProcessEnabled: true,
		GateInferred:   true,
		KeySymbols:     5,
	}
}

// OptionsFromConfig maps configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config, layers *LayerOverrides) Options {
	return Options{
		Community: community.Options{
			Resolution:       cfg.Community.Resolution,
			MinGain:          cfg.Community.MinGain,
			MaxIterations:    cfg.Community.MaxIterations,
			MinCommunitySize: cfg.Community.MinCommunitySize,
			MaxLevels:        cfg.Community.MaxLevels,
		},
		Flows:          flows.Options{MinOverlapRatio: cfg.Flows.MinOverlapRatio},
		ProcessEnabled: cfg.Process.Enabled,
		GateInferred:   cfg.Process.GateInferred,
		KeySymbols:     cfg.Analysis.KeySymbols,
		Layers:         layers,
		Force:          cfg.Analysis.Force,
	}
}

// ModuleStats summarises a detection run.
type ModuleStats struct {
	Symbols     int     `json:"symbols"`
	Edges       int     `json:"edges"`
	Communities int     `json:"communities"`
	Modules     int     `json:"modules"`
	Unassigned  int     `json:"unassigned"`
	Modularity  float64 `json:"modularity"`
	Iterations  int     `json:"iterations"`
	Levels      int     `json:"levels"`
	Converged   bool    `json:"converged"`
}

// DetectResult is the outcome of DetectModules.
type DetectResult struct {
	Stats   ModuleStats      `json:"stats"`
	Modules []storage.Module `json:"modules"`
}

// InteractionResult is the outcome of DeriveInteractions.
type InteractionResult struct {
	Kept    []interactions.Interaction `json:"kept"`
	Dropped []interactions.Interaction `json:"dropped"`
}

// FlowResult is the outcome of DedupFlows.
type FlowResult struct {
	Kept []flows.Flow `json:"kept"`
	// Identical lists true duplicates; Overlapping lists flows removed by
	// the set-overlap pass.
	Identical   []flows.Drop `json:"identical"`
	Overlapping []flows.Drop `json:"overlapping"`
}

// Stats is stored with every analysis run.
type Stats struct {
	ModuleStats
	ProcessGroups       int   `json:"processGroups"`
	Interactions        int   `json:"interactions"`
	InteractionsDropped int   `json:"interactionsDropped"`
	FlowsKept           int   `json:"flowsKept"`
	FlowsDropped        int   `json:"flowsDropped"`
	DurationMs          int64 `json:"durationMs"`
}

// AnalyzeResult is the outcome of Analyze.
type AnalyzeResult struct {
	RunID       string `json:"runId,omitempty"`
	Fingerprint string `json:"fingerprint"`
	// Skipped is set when the inputs matched the last run and nothing ran.
	Skipped bool  `json:"skipped"`
	Stats   Stats `json:"stats"`

	Groups              *process.Groups            `json:"-"`
	DroppedInteractions []interactions.Interaction `json:"droppedInteractions,omitempty"`
	DroppedFlows        []flows.Drop               `json:"droppedFlows,omitempty"`
}
