package flows

import (
	"cmp"
	"slices"
	"strconv"
)

// DefaultMinOverlapRatio is the overlap at which two same-tier flows are
// judged redundant.
const DefaultMinOverlapRatio = 0.5

// Options configures Dedup.
type Options struct {
	MinOverlapRatio float64 `json:"minOverlapRatio" mapstructure:"minOverlapRatio"`
}

// DefaultOptions returns the deduplicator defaults.
func DefaultOptions() Options {
	return Options{MinOverlapRatio: DefaultMinOverlapRatio}
}

// OverlapRatio returns |A∩B| / max(|A|,|B|) over the interaction sets, so a
// small set contained in a much larger one scores low while near-equal sets
// score close to 1. Empty sets score 0.
func OverlapRatio(a, b Flow) float64 {
	sa, sb := a.InteractionSet(), b.InteractionSet()
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	inter := 0
	i, j := 0, 0
	for i < len(sa) && j < len(sb) {
		switch {
		case sa[i] == sb[j]:
			inter++
			i++
			j++
		case sa[i] < sb[j]:
			i++
		default:
			j++
		}
	}
	return float64(inter) / float64(max(len(sa), len(sb)))
}

// Compare orders two flows by preference: negative when a should be kept
// over b, positive when b should be kept over a. The rules apply in order:
//
//  1. specificity: action and entity both set beats a catch-all
//  2. steps: more definition steps
//  3. focus: fewer interactions
//  4. tier: higher tier
//
// Remaining ties are broken on content (interaction set, action, entity,
// name, id) so the order is total and independent of input order.
func Compare(a, b Flow) int {
	c, _ := compare(a, b)
	return c
}

func compare(a, b Flow) (int, Rule) {
	if a.IsSpecific() != b.IsSpecific() {
		if a.IsSpecific() {
			return -1, RuleSpecificity
		}
		return 1, RuleSpecificity
	}
	if c := cmp.Compare(len(b.DefinitionSteps), len(a.DefinitionSteps)); c != 0 {
		return c, RuleSteps
	}
	sa, sb := a.InteractionSet(), b.InteractionSet()
	if c := cmp.Compare(len(sa), len(sb)); c != 0 {
		return c, RuleFocus
	}
	if c := cmp.Compare(b.Tier, a.Tier); c != 0 {
		return c, RuleTier
	}
	if c := slices.Compare(sa, sb); c != 0 {
		return c, RuleCanonical
	}
	if c := cmp.Compare(a.ActionType, b.ActionType); c != 0 {
		return c, RuleCanonical
	}
	if c := cmp.Compare(a.TargetEntity, b.TargetEntity); c != 0 {
		return c, RuleCanonical
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c, RuleCanonical
	}
	return cmp.Compare(a.ID, b.ID), RuleCanonical
}

// Dedup removes redundant flows and returns the survivors in input order.
func Dedup(flows []Flow, opts Options) []Flow {
	return DedupWithReport(flows, opts).Kept
}

// DedupWithReport removes redundant flows and reports each removal.
//
// Only flows of equal tier with non-empty interaction sets are compared, so a
// composite flow always survives next to the atomic flows it covers. A pair
// whose overlap ratio reaches MinOverlapRatio keeps the preferred flow per
// Compare.
//
// Candidates are visited in preference order and a candidate survives unless
// it is redundant with an already kept flow. A dropped flow never drops
// another: when A beats B and B overlaps C but A does not, A and C survive.
// The result therefore does not depend on input order, and running Dedup on
// its own output changes nothing.
func DedupWithReport(flows []Flow, opts Options) Report {
	if opts.MinOverlapRatio <= 0 {
		opts.MinOverlapRatio = DefaultMinOverlapRatio
	}

	order := preferenceOrder(flows)
	keep := make([]bool, len(flows))
	kept := make([]int, 0, len(flows))
	drops := make([]Drop, 0)

	for _, i := range order {
		f := flows[i]
		if len(f.InteractionIDs) == 0 {
			keep[i] = true
			continue
		}

		redundant := false
		for _, k := range kept {
			other := flows[k]
			if other.Tier != f.Tier {
				continue
			}
			ratio := OverlapRatio(f, other)
			if ratio < opts.MinOverlapRatio {
				continue
			}
			_, rule := compare(other, f)
			drops = append(drops, Drop{Dropped: f, KeptBy: other, Overlap: ratio, Rule: rule})
			redundant = true
			break
		}

		if !redundant {
			keep[i] = true
			kept = append(kept, i)
		}
	}

	return Report{Kept: selectKept(flows, keep), Dropped: drops}
}

// DedupIdentical collapses flows whose tier, action, entity and interaction
// set are all equal, keeping the preferred one of each group. Flows without
// interactions are left untouched.
func DedupIdentical(flows []Flow) []Flow {
	return DedupIdenticalWithReport(flows).Kept
}

// DedupIdenticalWithReport is DedupIdentical with a removal report.
func DedupIdenticalWithReport(flows []Flow) Report {
	order := preferenceOrder(flows)
	keep := make([]bool, len(flows))
	winners := make(map[identity]int)
	drops := make([]Drop, 0)

	for _, i := range order {
		f := flows[i]
		if len(f.InteractionIDs) == 0 {
			keep[i] = true
			continue
		}
		key := identityKey(f)
		if w, ok := winners[key]; ok {
			drops = append(drops, Drop{Dropped: f, KeptBy: flows[w], Overlap: 1, Rule: RuleIdentical})
			continue
		}
		winners[key] = i
		keep[i] = true
	}

	return Report{Kept: selectKept(flows, keep), Dropped: drops}
}

// IsDuplicate reports whether two flows are true duplicates.
func IsDuplicate(a, b Flow) bool {
	if len(a.InteractionIDs) == 0 || len(b.InteractionIDs) == 0 {
		return false
	}
	return identityKey(a) == identityKey(b)
}

// identity holds the fields two true duplicates share. The interaction
// set is encoded as sorted comma-terminated ids.
type identity struct {
	tier         int
	actionType   string
	targetEntity string
	interactions string
}

func identityKey(f Flow) identity {
	set := make([]byte, 0, 32)
	for _, id := range f.InteractionSet() {
		set = strconv.AppendInt(set, int64(id), 10)
		set = append(set, ',')
	}
	return identity{
		tier:         f.Tier,
		actionType:   f.ActionType,
		targetEntity: f.TargetEntity,
		interactions: string(set),
	}
}

// preferenceOrder returns flow indexes sorted best first.
func preferenceOrder(flows []Flow) []int {
	order := make([]int, len(flows))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return Compare(flows[a], flows[b])
	})
	return order
}

func selectKept(flows []Flow, keep []bool) []Flow {
	out := make([]Flow, 0, len(flows))
	for i, f := range flows {
		if keep[i] {
			out = append(out, f)
		}
	}
	return out
}
