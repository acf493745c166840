package process

import (
	"cmp"
	"slices"
)

// unionFind is a disjoint-set forest with path compression and union by
// size. Roots are only used internally; components are numbered by
// components().
type unionFind[K cmp.Ordered] struct {
	parent map[K]K
	size   map[K]int
}

func newUnionFind[K cmp.Ordered]() *unionFind[K] {
	return &unionFind[K]{
		parent: make(map[K]K),
		size:   make(map[K]int),
	}
}

func (u *unionFind[K]) add(k K) {
	if _, ok := u.parent[k]; !ok {
		u.parent[k] = k
		u.size[k] = 1
	}
}

func (u *unionFind[K]) find(k K) K {
	root := k
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[k] != root {
		next := u.parent[k]
		u.parent[k] = root
		k = next
	}
	return root
}

func (u *unionFind[K]) union(a, b K) {
	u.add(a)
	u.add(b)
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// components numbers every component 0..n-1 in ascending order of its
// smallest element and returns element -> component.
func (u *unionFind[K]) components() map[K]int {
	keys := make([]K, 0, len(u.parent))
	for k := range u.parent {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	byRoot := make(map[K]int)
	out := make(map[K]int, len(keys))
	for _, k := range keys {
		root := u.find(k)
		id, ok := byRoot[root]
		if !ok {
			id = len(byRoot)
			byRoot[root] = id
		}
		out[k] = id
	}
	return out
}
