package scip

import "sort"

// DefaultMaxFunctionLines is the default maximum function length (in lines) used
// when we can't determine the actual function boundary. scip-go does not
// populate EnclosingRange for functions, so a body then runs to the line
// before the next callable definition in the same document.
const DefaultMaxFunctionLines = 500

// lineRange is an inclusive, 0-indexed line span.
type lineRange struct {
	start int
	end   int
}

func (r lineRange) contains(line int) bool {
	return line >= r.start && line <= r.end
}

func (r lineRange) span() int {
	return r.end - r.start
}

// occurrenceLines returns the start and end line of a SCIP range, which has
// either three elements (single line) or four.
func occurrenceLines(rng []int32) (lineRange, bool) {
	switch len(rng) {
	case 3:
		return lineRange{start: int(rng[0]), end: int(rng[0])}, true
	case 4:
		return lineRange{start: int(rng[0]), end: int(rng[2])}, true
	}
	return lineRange{}, false
}

// bodyOwner is a definition with the line span of its body.
type bodyOwner struct {
	symbol string
	body   lineRange
}

// documentBodies resolves the body span of every definition in one
// document. An EnclosingRange wins; callables without one run to the line
// before the next callable, or DefaultMaxFunctionLines; other definitions
// cover only their own lines. The result is sorted by start line.
func documentBodies(defs []definition) []bodyOwner {
	var callables []int
	bodies := make([]bodyOwner, len(defs))
	for i, d := range defs {
		bodies[i] = bodyOwner{symbol: d.symbol, body: d.lines}
		if d.hasEnclosing {
			bodies[i].body = d.enclosing
			continue
		}
		if d.kind.IsCallable() {
			callables = append(callables, i)
		}
	}

	sort.SliceStable(callables, func(a, b int) bool {
		return defs[callables[a]].lines.start < defs[callables[b]].lines.start
	})
	for n, i := range callables {
		start := defs[i].lines.start
		end := start + DefaultMaxFunctionLines
		if n+1 < len(callables) {
			if next := defs[callables[n+1]].lines.start - 1; next >= start {
				end = next
			}
		}
		bodies[i].body = lineRange{start: start, end: end}
	}

	sort.SliceStable(bodies, func(a, b int) bool {
		if bodies[a].body.start != bodies[b].body.start {
			return bodies[a].body.start < bodies[b].body.start
		}
		return bodies[a].body.span() > bodies[b].body.span()
	})
	return bodies
}

// innermostOwner returns the smallest body containing line, or "" when the
// line is outside every body. bodies must be sorted by start line.
func innermostOwner(bodies []bodyOwner, line int) string {
	// Bodies starting after line cannot contain it
	n := sort.Search(len(bodies), func(i int) bool { return bodies[i].body.start > line })

	best := -1
	for i := n - 1; i >= 0; i-- {
		b := bodies[i].body
		if !b.contains(line) {
			continue
		}
		if best == -1 || b.span() < bodies[best].body.span() {
			best = i
		}
	}
	if best == -1 {
		return ""
	}
	return bodies[best].symbol
}
