package reachability

import (
	"log/slog"
	"math"
	"sort"

	"glidecone/internal/metrics"
	"glidecone/pkg/pqueue"
	"glidecone/pkg/terrain"
)

// search runs the best-first expansion: pop the
// highest-priority (highest-altitude) frontier node, finalize it, and
// propagate to every unexplored cardinal neighbor.
func search(grid *terrain.HeightGrid, start GridIndex, startHeight float64, q Query, logger *slog.Logger) *SearchState {
	rows, cols := grid.Rows(), grid.Cols()

	state := &SearchState{
		Explored:           make(map[GridIndex]Node),
		IntersectionChecks: make2D(rows, cols),
		queue:              pqueue.New[GridIndex, Node](),
	}

	startNode := Node{
		Height:              startHeight,
		Ix:                  start,
		Ref:                 nil,
		Distance:            0,
		Reachable:           grid.At(start.Row, start.Col) < startHeight,
		EffectiveGlideRatio: q.GlideRatio,
	}
	state.queue.Put(start, startNode, -startHeight)

	finalized := 0
	for state.queue.Len() > 0 {
		key, node, _ := state.queue.Pop()
		if _, ok := state.Explored[key]; ok {
			panic(ErrRefinalized)
		}
		state.Explored[key] = node
		finalized++

		for _, m := range cardinalNeighbors(key, rows, cols) {
			if _, ok := state.Explored[m]; ok {
				continue
			}
			nodeUpdate(m, grid, state, q)
		}
	}

	metrics.Get().SearchCellsFinalized.Observe(float64(finalized))
	if logger != nil {
		logger.Debug("search finalized", "cells", finalized)
	}
	return state
}

func make2D(rows, cols int) [][]int {
	out := make([][]int, rows)
	for r := range out {
		out[r] = make([]int, cols)
	}
	return out
}

func cardinalNeighbors(ix GridIndex, rows, cols int) []GridIndex {
	var out []GridIndex
	if ix.Row > 0 {
		out = append(out, GridIndex{ix.Row - 1, ix.Col})
	}
	if ix.Row < rows-1 {
		out = append(out, GridIndex{ix.Row + 1, ix.Col})
	}
	if ix.Col > 0 {
		out = append(out, GridIndex{ix.Row, ix.Col - 1})
	}
	if ix.Col < cols-1 {
		out = append(out, GridIndex{ix.Row, ix.Col + 1})
	}
	return out
}

// nodeUpdate re-derives the best candidate Node for ix given its currently
// finalized cardinal neighbors, dispatching to the arity-specific rule set.
func nodeUpdate(ix GridIndex, grid *terrain.HeightGrid, state *SearchState, q Query) {
	neighbors := cardinalNeighbors(ix, grid.Rows(), grid.Cols())
	var explored []GridIndex
	for _, m := range neighbors {
		if _, ok := state.Explored[m]; ok {
			explored = append(explored, m)
		}
	}
	k := len(explored)
	if k == 0 {
		return
	}

	if k == 1 {
		if !state.Explored[explored[0]].Reachable {
			return
		}
		propagateSingle(ix, explored[0], state, grid, q, false)
		return
	}

	reach := filterReachable(state.Explored, explored)

	if k == 4 {
		switch len(reach) {
		case 0:
			insertSentinel(ix, state)
			return
		case 4:
			if allDistinctRefs(state.Explored, reach) {
				sort.Slice(reach, func(i, j int) bool {
					return state.Explored[reach[i]].Height < state.Explored[reach[j]].Height
				})
				propagateSingle(ix, reach[0], state, grid, q, false)
			}
			return
		}
	}

	switch len(reach) {
	case 0:
		return
	case 1:
		propagateSingle(ix, reach[0], state, grid, q, false)
	case 2:
		propagateTwo(ix, reach[0], reach[1], state, grid, q)
	case 3:
		propagateThree(ix, reach, state, grid, q)
	}
}

func filterReachable(explored map[GridIndex]Node, ixs []GridIndex) []GridIndex {
	out := make([]GridIndex, 0, len(ixs))
	for _, ix := range ixs {
		if explored[ix].Reachable {
			out = append(out, ix)
		}
	}
	return out
}

func allDistinctRefs(explored map[GridIndex]Node, ixs []GridIndex) bool {
	for i := 0; i < len(ixs); i++ {
		for j := i + 1; j < len(ixs); j++ {
			if refsEqual(explored[ixs[i]].Ref, explored[ixs[j]].Ref) {
				return false
			}
		}
	}
	return true
}

func insertSentinel(ix GridIndex, state *SearchState) {
	node := Node{
		Height:              0,
		Ix:                  ix,
		Ref:                 nil,
		Distance:            0,
		Reachable:           false,
		EffectiveGlideRatio: math.Inf(1),
	}
	state.queue.UpdateIfLess(ix, node, 0)
}

// propagateSingle derives a candidate Node for ix from a single finalized
// neighbor n. When wind speed is at least trim speed, or
// forceIntersectionCheck is set, it first tries to extend n's straight
// segment from n's own ref through to ix and kinks at n if that sightline
// is blocked; otherwise it anchors the segment at n.
func propagateSingle(ix, n GridIndex, state *SearchState, grid *terrain.HeightGrid, q Query, forceIntersectionCheck bool) bool {
	nNode := state.Explored[n]
	if !nNode.Reachable {
		return false
	}

	r := n
	if nNode.Ref != nil && (q.WindSpeed >= q.TrimSpeed || forceIntersectionCheck) {
		r = *nNode.Ref
	}

	if existing, _, ok := state.queue.Get(ix); ok && refsEqual(existing.Ref, &r) {
		return false
	}

	metrics.Get().NeighborUpdates.WithLabelValues("single").Inc()

	rNode, ok := state.Explored[r]
	if !ok {
		panic(ErrMissingRef)
	}
	effGr := effectiveGlide(ix, r, q)
	if isLineIntersecting(grid, r, ix, rNode.Height, effGr.Ratio, q.MinClearance, state.IntersectionChecks) {
		r = n
		rNode = state.Explored[r]
		effGr = effectiveGlide(ix, r, q)
	}
	if effGr.Unreachable() {
		return false
	}

	return commitCandidate(ix, r, rNode, effGr.Ratio, grid, state, q)
}

// propagateFromAnchor derives a candidate Node for ix directly from a
// shared two-neighbor anchor, skipping the neighbor-fallback step since
// there is no adjacent cell to fall back to.
func propagateFromAnchor(ix, anchor GridIndex, state *SearchState, grid *terrain.HeightGrid, q Query) bool {
	if existing, _, ok := state.queue.Get(ix); ok && refsEqual(existing.Ref, &anchor) {
		return false
	}

	anchorNode, ok := state.Explored[anchor]
	if !ok {
		panic(ErrMissingRef)
	}
	effGr := effectiveGlide(ix, anchor, q)
	if isLineIntersecting(grid, anchor, ix, anchorNode.Height, effGr.Ratio, q.MinClearance, state.IntersectionChecks) {
		return false
	}
	if effGr.Unreachable() {
		return false
	}

	return commitCandidate(ix, anchor, anchorNode, effGr.Ratio, grid, state, q)
}

// commitCandidate derives and enqueues the candidate Node for ix anchored at
// r. The Ref actually stored may be a compressed ancestor further back along
// r's straight-line chain (getStraightLineRef); blindly adopting a
// compressed ancestor can adopt a Ref whose direct line-of-sight to ix was
// never checked, even though each individual hop along the chain was clear.
// We re-validate line-of-sight from the compressed ancestor to ix before
// adopting it, falling back to the immediate anchor r when the compressed
// sightline turns out to be blocked.
func commitCandidate(ix, r GridIndex, rNode Node, effGrRatio float64, grid *terrain.HeightGrid, state *SearchState, q Query) bool {
	distSeg := l2Distance(ix, r) * grid.CellSize
	height := rNode.Height - distSeg*effGrRatio
	distTotal := distSeg + rNode.Distance
	reachable := grid.At(ix.Row, ix.Col) < height

	refFinal := r
	if !q.DisableCompression {
		if compressed := getStraightLineRef(state.Explored, ix, r); compressed != r {
			compressedNode, ok := state.Explored[compressed]
			compressedGr := effectiveGlide(ix, compressed, q)
			if ok && !compressedGr.Unreachable() &&
				!isLineIntersecting(grid, compressed, ix, compressedNode.Height, compressedGr.Ratio, q.MinClearance, state.IntersectionChecks) {
				refFinal = compressed
			}
		}
	}

	candidate := Node{
		Height:              height,
		Ix:                  ix,
		Ref:                 &refFinal,
		Distance:            distTotal,
		Reachable:           reachable,
		EffectiveGlideRatio: effGrRatio,
	}
	return state.queue.UpdateIfLess(ix, candidate, -height)
}

// propagateTwo handles a cell with exactly two reachable finalized
// neighbors: when their reference paths share an anchor, propagate from
// that anchor directly; otherwise treat each neighbor independently with
// sightline checks forced on.
func propagateTwo(ix, n1, n2 GridIndex, state *SearchState, grid *terrain.HeightGrid, q Query) {
	metrics.Get().NeighborUpdates.WithLabelValues("two").Inc()

	node1, node2 := state.Explored[n1], state.Explored[n2]
	if node1.Ref != nil && node2.Ref != nil {
		if anchor, ok := refPathsIntersection(n1, *node1.Ref, n2, *node2.Ref); ok {
			propagateFromAnchor(ix, anchor, state, grid, q)
			return
		}
	}
	propagateSingle(ix, n1, state, grid, q, true)
	propagateSingle(ix, n2, state, grid, q, true)
}

// propagateThree handles a cell whose reachable finalized neighbor subset
// has exactly three elements.
func propagateThree(ix GridIndex, reach []GridIndex, state *SearchState, grid *terrain.HeightGrid, q Query) {
	metrics.Get().NeighborUpdates.WithLabelValues("three").Inc()

	a, b, c := reach[0], reach[1], reach[2]
	refA, refB, refC := state.Explored[a].Ref, state.Explored[b].Ref, state.Explored[c].Ref
	eqAB, eqAC, eqBC := refsEqual(refA, refB), refsEqual(refA, refC), refsEqual(refB, refC)

	switch {
	case eqAB && eqAC && eqBC:
		// All three share the same ref: dominated by an earlier propagation, no-op.
		return
	case eqAB:
		propagateTwo(ix, a, b, state, grid, q)
		propagateSingle(ix, c, state, grid, q, false)
	case eqAC:
		propagateTwo(ix, a, c, state, grid, q)
		propagateSingle(ix, b, state, grid, q, false)
	case eqBC:
		propagateTwo(ix, b, c, state, grid, q)
		propagateSingle(ix, a, state, grid, q, false)
	default:
		sorted := []GridIndex{a, b, c}
		sort.Slice(sorted, func(i, j int) bool {
			return state.Explored[sorted[i]].Distance < state.Explored[sorted[j]].Distance
		})
		for _, n := range sorted {
			propagateSingle(ix, n, state, grid, q, false)
		}
	}
}
