// Package export writes the inferred architecture as a portable snapshot.
package export

// Snapshot is the exported architecture of one repository.
type Snapshot struct {
	Metadata     Metadata            `json:"metadata" yaml:"metadata" toml:"metadata"`
	Modules      []Module            `json:"modules" yaml:"modules" toml:"modules"`
	Groups       []Group             `json:"groups" yaml:"groups" toml:"groups"`
	Interactions []Interaction       `json:"interactions" yaml:"interactions" toml:"interactions"`
	Bridges      []CrossModuleBridge `json:"bridges" yaml:"bridges" toml:"bridges"`
	Flows        []Flow              `json:"flows" yaml:"flows" toml:"flows"`
}

// Metadata describes where and when the snapshot was taken.
type Metadata struct {
	Repo        string `json:"repo" yaml:"repo" toml:"repo"`
	Generated   string `json:"generated" yaml:"generated" toml:"generated"` // ISO 8601 timestamp
	RunID       string `json:"runId,omitempty" yaml:"runId,omitempty" toml:"runId,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty" toml:"fingerprint,omitempty"`
	SymbolCount int    `json:"symbolCount" yaml:"symbolCount" toml:"symbolCount"`
	FileCount   int    `json:"fileCount" yaml:"fileCount" toml:"fileCount"`
	ModuleCount int    `json:"moduleCount" yaml:"moduleCount" toml:"moduleCount"`
	GroupCount  int    `json:"groupCount" yaml:"groupCount" toml:"groupCount"`
}

// Module is one inferred module.
type Module struct {
	ID           int64       `json:"id" yaml:"id" toml:"id"`
	ParentID     int64       `json:"parentId,omitempty" yaml:"parentId,omitempty" toml:"parentId,omitempty"`
	FullPath     string      `json:"fullPath" yaml:"fullPath" toml:"fullPath"`
	Name         string      `json:"name" yaml:"name" toml:"name"`
	Depth        int         `json:"depth" yaml:"depth" toml:"depth"`
	Layer        string      `json:"layer" yaml:"layer" toml:"layer"`
	ProcessGroup *int        `json:"processGroup,omitempty" yaml:"processGroup,omitempty" toml:"processGroup,omitempty"`
	Files        []string    `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty"`
	Members      []Member    `json:"members,omitempty" yaml:"members,omitempty" toml:"members,omitempty"`
	KeySymbols   []KeySymbol `json:"keySymbols,omitempty" yaml:"keySymbols,omitempty" toml:"keySymbols,omitempty"`
}

// Member is a symbol of a module.
type Member struct {
	ID       int64   `json:"id" yaml:"id" toml:"id"`
	Name     string  `json:"name" yaml:"name" toml:"name"`
	Kind     string  `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	File     string  `json:"file" yaml:"file" toml:"file"`
	Line     int     `json:"line,omitempty" yaml:"line,omitempty" toml:"line,omitempty"`
	Cohesion float64 `json:"cohesion" yaml:"cohesion" toml:"cohesion"`
}

// KeySymbol is a ranked anchor of a module.
type KeySymbol struct {
	ID    int64   `json:"id" yaml:"id" toml:"id"`
	Name  string  `json:"name" yaml:"name" toml:"name"`
	Score float64 `json:"score" yaml:"score" toml:"score"`
}

// Group is a process group with its modules' full paths.
type Group struct {
	ID      int      `json:"id" yaml:"id" toml:"id"`
	Modules []string `json:"modules" yaml:"modules" toml:"modules"`
}

// Interaction is a module-to-module edge.
type Interaction struct {
	ID          int64  `json:"id" yaml:"id" toml:"id"`
	From        string `json:"from" yaml:"from" toml:"from"`
	To          string `json:"to" yaml:"to" toml:"to"`
	Weight      int    `json:"weight" yaml:"weight" toml:"weight"`
	CallSites   int    `json:"callSites" yaml:"callSites" toml:"callSites"`
	Source      string `json:"source" yaml:"source" toml:"source"`
	SameProcess bool   `json:"sameProcess" yaml:"sameProcess" toml:"sameProcess"`
}

// Flow is a surviving flow.
type Flow struct {
	ID           int64    `json:"id" yaml:"id" toml:"id"`
	Name         string   `json:"name" yaml:"name" toml:"name"`
	Tier         int      `json:"tier" yaml:"tier" toml:"tier"`
	ActionType   string   `json:"actionType,omitempty" yaml:"actionType,omitempty" toml:"actionType,omitempty"`
	TargetEntity string   `json:"targetEntity,omitempty" yaml:"targetEntity,omitempty" toml:"targetEntity,omitempty"`
	Interactions []int64  `json:"interactions" yaml:"interactions" toml:"interactions"`
	Steps        []string `json:"steps,omitempty" yaml:"steps,omitempty" toml:"steps,omitempty"`
}

// Options configures an export.
type Options struct {
	Format   string // "json" | "yaml" | "toml" | "text"
	Compress bool   // zstd-compress the encoded snapshot
	// IncludeMembers lists every member symbol of each module.
	IncludeMembers bool
}

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatText = "text"
)
