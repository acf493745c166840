package main

import (
	"squint/internal/flows"
	"squint/internal/interactions"
	"squint/internal/process"
	"squint/internal/storage"
)

// ModuleCLI is one module as printed by `modules list`.
type ModuleCLI struct {
	ID           process.ModuleID `json:"id"`
	FullPath     string           `json:"fullPath"`
	Layer        string           `json:"layer"`
	ProcessGroup *process.GroupID `json:"processGroup,omitempty"`
	MemberCount  int              `json:"memberCount"`
	KeySymbols   []string         `json:"keySymbols,omitempty"`
	Members      []string         `json:"members,omitempty"`
}

// ModulesResponseCLI lists modules.
type ModulesResponseCLI struct {
	Modules []ModuleCLI `json:"modules"`
}

// GroupCLI is one process group.
type GroupCLI struct {
	ID      process.GroupID `json:"id"`
	Modules []string        `json:"modules"`
}

// GroupsResponseCLI lists process groups.
type GroupsResponseCLI struct {
	GroupCount int        `json:"groupCount"`
	Groups     []GroupCLI `json:"groups"`
	// CrossGroupPairs counts unordered pairs of distinct groups.
	CrossGroupPairs int `json:"crossGroupPairs"`
}

// GroupCheckResponseCLI answers whether two modules share a process.
type GroupCheckResponseCLI struct {
	A           string           `json:"a"`
	B           string           `json:"b"`
	GroupA      *process.GroupID `json:"groupA,omitempty"`
	GroupB      *process.GroupID `json:"groupB,omitempty"`
	SameProcess bool             `json:"sameProcess"`
}

// InteractionCLI is an interaction with module paths resolved.
type InteractionCLI struct {
	interactions.Interaction
	FromPath string `json:"fromPath"`
	ToPath   string `json:"toPath"`
}

// InteractionsResponseCLI lists interactions, and dropped ones after a
// derive.
type InteractionsResponseCLI struct {
	Interactions []InteractionCLI `json:"interactions"`
	Dropped      []InteractionCLI `json:"dropped,omitempty"`
}

// InteractionAddResponseCLI reports a recorded inferred interaction.
type InteractionAddResponseCLI struct {
	ID   int64  `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// FlowsResponseCLI lists flows, and dropped ones after a dedup.
type FlowsResponseCLI struct {
	Flows   []flows.Flow `json:"flows"`
	Dropped []flows.Drop `json:"dropped,omitempty"`
}

// FlowImportResponseCLI reports an import of flow candidates.
type FlowImportResponseCLI struct {
	File     string       `json:"file"`
	Imported []flows.Flow `json:"imported"`
}

// SearchResponseCLI lists symbol search hits.
type SearchResponseCLI struct {
	Query string              `json:"query"`
	Hits  []storage.SymbolHit `json:"hits"`
}

// StatusResponseCLI summarises the store.
type StatusResponseCLI struct {
	RepoRoot     string       `json:"repoRoot"`
	Database     string       `json:"database"`
	Files        int          `json:"files"`
	Symbols      int          `json:"symbols"`
	CallEdges    int          `json:"callEdges"`
	Imports      int          `json:"imports"`
	Modules      int          `json:"modules"`
	Interactions int          `json:"interactions"`
	Flows        int          `json:"flows"`
	LastIngest   *storage.Run `json:"lastIngest,omitempty"`
	LastAnalyze  *storage.Run `json:"lastAnalyze,omitempty"`
}

// VersionResponseCLI is the machine-readable version.
type VersionResponseCLI struct {
	Fields map[string]string `json:"version"`
}
