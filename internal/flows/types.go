// Package flows removes redundant higher-level flow candidates.
//
// A flow is a named path through module interactions, tagged with a tier
// (atomic chain, composite journey, ...) and optionally with the action and
// entity it is about. Candidates come from an upstream generator and often
// restate the same path; the deduplicator keeps the most specific,
// best-traced restatement.
package flows

import (
	"slices"
)

// InteractionID identifies a module-to-module interaction.
type InteractionID int64

// Step is one traced step of a flow definition.
type Step struct {
	SymbolID    int64  `json:"symbolId,omitempty" toml:"symbol_id" yaml:"symbolId,omitempty"`
	Description string `json:"description,omitempty" toml:"description" yaml:"description,omitempty"`
}

// Flow is a flow candidate. Empty ActionType or TargetEntity means the field
// is absent.
type Flow struct {
	ID              int64           `json:"id,omitempty" toml:"id" yaml:"id,omitempty"`
	Name            string          `json:"name,omitempty" toml:"name" yaml:"name,omitempty"`
	Tier            int             `json:"tier" toml:"tier" yaml:"tier"`
	ActionType      string          `json:"actionType,omitempty" toml:"action_type" yaml:"actionType,omitempty"`
	TargetEntity    string          `json:"targetEntity,omitempty" toml:"target_entity" yaml:"targetEntity,omitempty"`
	InteractionIDs  []InteractionID `json:"interactionIds" toml:"interaction_ids" yaml:"interactionIds"`
	DefinitionSteps []Step          `json:"definitionSteps,omitempty" toml:"steps" yaml:"definitionSteps,omitempty"`
}

// IsSpecific reports whether the flow names both an action and an entity.
func (f Flow) IsSpecific() bool {
	return f.ActionType != "" && f.TargetEntity != ""
}

// InteractionSet returns the interaction ids sorted and deduplicated.
func (f Flow) InteractionSet() []InteractionID {
	ids := slices.Clone(f.InteractionIDs)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Rule names the tie-break rule that decided a redundant pair.
type Rule string

const (
	RuleSpecificity Rule = "specificity"
	RuleSteps       Rule = "steps"
	RuleFocus       Rule = "focus"
	RuleTier        Rule = "tier"
	RuleCanonical   Rule = "canonical"
	RuleIdentical   Rule = "identical"
)

// Drop records why a candidate was removed.
type Drop struct {
	Dropped Flow    `json:"dropped"`
	KeptBy  Flow    `json:"keptBy"`
	Overlap float64 `json:"overlap"`
	Rule    Rule    `json:"rule"`
}

// Report is the outcome of a deduplication pass.
type Report struct {
	Kept    []Flow `json:"kept"`
	Dropped []Drop `json:"dropped"`
}
