package community

import (
	"math"
	"sort"
)

// level is one layer of the optimisation: nodes are indexed densely and,
// above the first level, each node stands for a whole community of the
// level below.
type level struct {
	n      int
	adj    []map[int]int // neighbour -> weight, never contains the node itself
	self   []int         // twice the weight folded inside a super-node
	degree []int         // weighted degree including self weight
}

// entry is the aggregate state of one community.
type entry struct {
	internal int // twice the weight of edges strictly inside
	total    int // sum of member degrees
	size     int
}

// CommunityTable owns the community state of one level. Entries live in an
// arena indexed by community id; an emptied community leaves a nil slot.
type CommunityTable struct {
	entries  []*entry
	nodeComm []int
}

// newSingletonTable puts every node of the level in its own community whose
// id equals the node index.
func newSingletonTable(lv *level) *CommunityTable {
	t := &CommunityTable{
		entries:  make([]*entry, lv.n),
		nodeComm: make([]int, lv.n),
	}
	for i := 0; i < lv.n; i++ {
		t.entries[i] = &entry{internal: lv.self[i], total: lv.degree[i], size: 1}
		t.nodeComm[i] = i
	}
	return t
}

// Len returns the number of non-empty communities.
func (t *CommunityTable) Len() int {
	n := 0
	for _, e := range t.entries {
		if e != nil {
			n++
		}
	}
	return n
}

// deltaQ is the modularity change of inserting an isolated node with degree
// ki, self weight self and kiIn weight toward the community into a community
// with aggregates sigmaIn and sigmaTot. Integers are converted only here.
func deltaQ(sigmaIn, sigmaTot, ki, kiIn, self int, m2, resolution float64) float64 {
	in := float64(sigmaIn)
	tot := float64(sigmaTot)
	k := float64(ki)
	kin := float64(kiIn)
	s := float64(self)

	after := (in+2*kin+s)/m2 - resolution*math.Pow((tot+k)/m2, 2)
	before := in/m2 - resolution*math.Pow(tot/m2, 2) + s/m2 - resolution*math.Pow(k/m2, 2)
	return after - before
}

// localMoves runs passes of greedy node moves until a pass moves nothing or
// maxIterations passes ran. It returns the number of passes, the number of
// moves and whether a fixed point was reached.
func (t *CommunityTable) localMoves(lv *level, m2 float64, opts Options) (passes, moves int, converged bool) {
	for passes < opts.MaxIterations {
		passes++
		moved := 0

		for i := 0; i < lv.n; i++ {
			if t.moveNode(lv, i, m2, opts) {
				moved++
			}
		}

		moves += moved
		if moved == 0 {
			return passes, moves, true
		}
	}
	return passes, moves, false
}

// moveNode evaluates every neighbouring community of node i and moves it to
// the one with the strictly best net gain when that gain exceeds MinGain.
func (t *CommunityTable) moveNode(lv *level, i int, m2 float64, opts Options) bool {
	cur := t.nodeComm[i]
	ki := lv.degree[i]
	self := lv.self[i]

	links := make(map[int]int)
	for j, w := range lv.adj[i] {
		if j == i {
			continue
		}
		links[t.nodeComm[j]] += w
	}

	// aggregates of the current community without node i
	c := t.entries[cur]
	curIn := c.internal - 2*links[cur] - self
	curTot := c.total - ki
	stay := deltaQ(curIn, curTot, ki, links[cur], self, m2, opts.Resolution)

	candidates := make([]int, 0, len(links))
	for comm := range links {
		if comm != cur {
			candidates = append(candidates, comm)
		}
	}
	sort.Ints(candidates)

	best := cur
	bestGain := 0.0
	for _, comm := range candidates {
		e := t.entries[comm]
		gain := deltaQ(e.internal, e.total, ki, links[comm], self, m2, opts.Resolution) - stay
		if gain > bestGain {
			bestGain = gain
			best = comm
		}
	}

	if best == cur || bestGain <= opts.MinGain {
		return false
	}

	c.internal = curIn
	c.total = curTot
	c.size--
	if c.size == 0 {
		t.entries[cur] = nil
	}

	dst := t.entries[best]
	dst.internal += 2*links[best] + self
	dst.total += ki
	dst.size++
	t.nodeComm[i] = best
	return true
}

// renumber maps the surviving community ids to 0..k-1 ordered by their
// lowest node index and returns node -> new id.
func (t *CommunityTable) renumber() ([]int, int) {
	next := make(map[int]int)
	out := make([]int, len(t.nodeComm))
	for i, comm := range t.nodeComm {
		id, ok := next[comm]
		if !ok {
			id = len(next)
			next[comm] = id
		}
		out[i] = id
	}
	return out, len(next)
}

// aggregate collapses each community into one node of a new level.
func (t *CommunityTable) aggregate(lv *level) (*level, []int) {
	mapping, k := t.renumber()

	next := &level{
		n:      k,
		adj:    make([]map[int]int, k),
		self:   make([]int, k),
		degree: make([]int, k),
	}
	for c := 0; c < k; c++ {
		next.adj[c] = make(map[int]int)
	}

	for i := 0; i < lv.n; i++ {
		ci := mapping[i]
		next.self[ci] += lv.self[i]
		next.degree[ci] += lv.degree[i]
		for j, w := range lv.adj[i] {
			cj := mapping[j]
			if ci == cj {
				// both directions are visited, so inside weight lands twice
				next.self[ci] += w
				continue
			}
			next.adj[ci][cj] += w
		}
	}

	return next, mapping
}
