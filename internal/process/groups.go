// Package process assigns modules to process groups: sets of modules that are
// transitively linked by runtime (non-type-only) imports and could therefore
// execute in the same process.
package process

import (
	"slices"
)

// ModuleID identifies a module.
type ModuleID int64

// FileID identifies a source file.
type FileID int64

// GroupID identifies a process group. IDs are dense and ordered by the
// smallest module id in each group.
type GroupID int

// ModuleFiles lists the files holding a module's members. Symbols is the
// member count per entry of Files; nil counts one per file.
type ModuleFiles struct {
	Module  ModuleID `json:"module"`
	Files   []FileID `json:"files"`
	Symbols []int    `json:"symbols,omitempty"`
}

// FileImport is one file-level import edge.
type FileImport struct {
	From       FileID `json:"from"`
	To         FileID `json:"to"`
	IsTypeOnly bool   `json:"isTypeOnly"`
}

// ModuleEdge is one module-level import edge.
type ModuleEdge struct {
	From       ModuleID `json:"from"`
	To         ModuleID `json:"to"`
	IsTypeOnly bool     `json:"isTypeOnly"`
}

// Groups is the result of a classification.
type Groups struct {
	ModuleToGroup  map[ModuleID]GroupID   `json:"moduleToGroup"`
	GroupToModules map[GroupID][]ModuleID `json:"groupToModules"`
	GroupCount     int                    `json:"groupCount"`
}

// GroupPair is an unordered pair of distinct groups with A < B.
type GroupPair struct {
	A GroupID `json:"a"`
	B GroupID `json:"b"`
}

// Classify computes process groups from the files each module owns and the
// file-level import graph. Type-only imports and imports touching files no
// module lists are ignored.
//
// A file listed by several modules is owned by the one with the most members
// in it, ties to the smallest module id; the others do not count it. A module
// whose owned files fall into several import components joins the one
// holding most of them; ties go to the component with the smallest id, where
// components are numbered by their smallest file id. A module owning no file
// gets a group of its own.
func Classify(modules []ModuleFiles, imports []FileImport) *Groups {
	ordered := sortedModules(modules)
	owner := fileOwners(ordered)

	uf := newUnionFind[FileID]()
	for f := range owner {
		uf.add(f)
	}
	for _, imp := range imports {
		if imp.IsTypeOnly {
			continue
		}
		if _, ok := owner[imp.From]; !ok {
			continue
		}
		if _, ok := owner[imp.To]; !ok {
			continue
		}
		uf.union(imp.From, imp.To)
	}
	fileComponent := uf.components()

	// component key per module; modules owning no file get a negative key
	// unique to them
	keys := make(map[ModuleID]int, len(ordered))
	for i, m := range ordered {
		var owned []FileID
		for _, f := range m.Files {
			if owner[f] == m.Module {
				owned = append(owned, f)
			}
		}
		if len(owned) == 0 {
			keys[m.Module] = -(i + 1)
			continue
		}
		keys[m.Module] = majorityComponent(owned, fileComponent)
	}

	return buildGroups(ordered, keys)
}

// fileOwners maps every listed file to the module with the most members in
// it. ordered must be sorted by module id so ties keep the smallest id.
func fileOwners(ordered []ModuleFiles) map[FileID]ModuleID {
	owner := make(map[FileID]ModuleID)
	best := make(map[FileID]int)
	for _, m := range ordered {
		counts := make(map[FileID]int, len(m.Files))
		for i, f := range m.Files {
			n := 1
			if i < len(m.Symbols) {
				n = m.Symbols[i]
			}
			counts[f] += n
		}
		for f, n := range counts {
			if _, seen := owner[f]; !seen || n > best[f] {
				owner[f] = m.Module
				best[f] = n
			}
		}
	}
	return owner
}

// ClassifyModuleEdges computes process groups when the caller already holds a
// module-level import graph. Edges to unknown modules are ignored.
func ClassifyModuleEdges(modules []ModuleID, edges []ModuleEdge) *Groups {
	known := make(map[ModuleID]bool, len(modules))
	uf := newUnionFind[ModuleID]()
	for _, m := range modules {
		known[m] = true
		uf.add(m)
	}
	for _, e := range edges {
		if e.IsTypeOnly || !known[e.From] || !known[e.To] {
			continue
		}
		uf.union(e.From, e.To)
	}
	components := uf.components()

	ordered := make([]ModuleFiles, 0, len(known))
	keys := make(map[ModuleID]int, len(known))
	for m := range known {
		ordered = append(ordered, ModuleFiles{Module: m})
		keys[m] = components[m]
	}
	return buildGroups(sortedModules(ordered), keys)
}

// majorityComponent picks the component holding most of the files.
func majorityComponent(files []FileID, fileComponent map[FileID]int) int {
	counts := make(map[int]int)
	for _, f := range uniqueFiles(files) {
		counts[fileComponent[f]]++
	}

	best, bestCount := -1, 0
	for comp, n := range counts {
		if n > bestCount || (n == bestCount && comp < best) {
			best, bestCount = comp, n
		}
	}
	return best
}

// buildGroups numbers groups densely in ascending module order.
func buildGroups(ordered []ModuleFiles, keys map[ModuleID]int) *Groups {
	groups := &Groups{
		ModuleToGroup:  make(map[ModuleID]GroupID, len(ordered)),
		GroupToModules: make(map[GroupID][]ModuleID),
	}

	byKey := make(map[int]GroupID)
	for _, m := range ordered {
		if _, seen := groups.ModuleToGroup[m.Module]; seen {
			continue
		}
		key := keys[m.Module]
		gid, ok := byKey[key]
		if !ok {
			gid = GroupID(len(byKey))
			byKey[key] = gid
		}
		groups.ModuleToGroup[m.Module] = gid
		groups.GroupToModules[gid] = append(groups.GroupToModules[gid], m.Module)
	}
	groups.GroupCount = len(byKey)
	return groups
}

func sortedModules(modules []ModuleFiles) []ModuleFiles {
	out := slices.Clone(modules)
	slices.SortStableFunc(out, func(a, b ModuleFiles) int {
		switch {
		case a.Module < b.Module:
			return -1
		case a.Module > b.Module:
			return 1
		}
		return 0
	})
	return out
}

func uniqueFiles(files []FileID) []FileID {
	out := slices.Clone(files)
	slices.Sort(out)
	return slices.Compact(out)
}

// AreSameProcess reports whether two modules share a process group. A module
// missing from the grouping is treated as same-process: absent information
// is never proof of separation.
func AreSameProcess(a, b ModuleID, groups *Groups) bool {
	if groups == nil {
		return true
	}
	ga, okA := groups.ModuleToGroup[a]
	gb, okB := groups.ModuleToGroup[b]
	if !okA || !okB {
		return true
	}
	return ga == gb
}

// CrossGroupPairs returns every unordered pair of distinct groups, C(n,2)
// pairs in total, ordered by (A, B).
func CrossGroupPairs(groups *Groups) []GroupPair {
	if groups == nil || groups.GroupCount < 2 {
		return []GroupPair{}
	}
	n := groups.GroupCount
	pairs := make([]GroupPair, 0, n*(n-1)/2)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			pairs = append(pairs, GroupPair{A: GroupID(a), B: GroupID(b)})
		}
	}
	return pairs
}

// Members returns the modules of one group in ascending order.
func (g *Groups) Members(id GroupID) []ModuleID {
	return slices.Clone(g.GroupToModules[id])
}

// GroupOf returns the group of a module.
func (g *Groups) GroupOf(m ModuleID) (GroupID, bool) {
	id, ok := g.ModuleToGroup[m]
	return id, ok
}
