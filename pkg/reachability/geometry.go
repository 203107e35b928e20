package reachability

import (
	"math"

	"glidecone/internal/metrics"
	"glidecone/pkg/glide"
	"glidecone/pkg/logging"
	"glidecone/pkg/terrain"
)

// l2Distance returns the straight-line distance between two grid indices
// in grid-cell units.
func l2Distance(a, b GridIndex) float64 {
	dRow := float64(a.Row - b.Row)
	dCol := float64(a.Col - b.Col)
	return math.Hypot(dRow, dCol)
}

// effectiveGlide computes the wind-adjusted glide performance for the glide
// segment anchored at r and terminating at ix: the aircraft's actual travel
// direction is r→ix (it launches from the higher, already-explored anchor
// and descends to ix), so the bearing fed to Wind.Effective must be the
// r→ix bearing, not ix→r, to agree with Wind.Effective's headwind/tailwind
// sign contract.
func effectiveGlide(ix, r GridIndex, q Query) glide.Effective {
	bearing := glide.BearingRowCol(r.Row, r.Col, ix.Row, ix.Col)
	wind := glide.Wind{DirectionRad: q.WindDirectionRad, SpeedMPS: q.WindSpeed}
	return wind.Effective(bearing, q.TrimSpeed, q.GlideRatio)
}

// isCardinal reports whether a and b share a row or a column.
func isCardinal(a, b GridIndex) bool {
	return a.Row == b.Row || a.Col == b.Col
}

// collinearBetween reports whether p lies on the cardinal segment a–b
// (inclusive), used by refPathsIntersection.
func collinearBetween(p, a, b GridIndex) bool {
	switch {
	case a.Row == b.Row:
		if p.Row != a.Row {
			return false
		}
		lo, hi := minMax(a.Col, b.Col)
		return p.Col >= lo && p.Col <= hi
	case a.Col == b.Col:
		if p.Col != a.Col {
			return false
		}
		lo, hi := minMax(a.Row, b.Row)
		return p.Row >= lo && p.Row <= hi
	default:
		return false
	}
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

func refsEqual(a, b *GridIndex) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// getStraightLineRef walks backward from n through ancestors as long as
// each ancestor's ref is collinear with ix on a cardinal axis, collapsing a
// staircase of cardinal-only propagations into the earliest such ancestor.
func getStraightLineRef(explored map[GridIndex]Node, ix, n GridIndex) GridIndex {
	cur := n
	for {
		node, ok := explored[cur]
		if !ok || node.Ref == nil {
			return cur
		}
		candidate := *node.Ref
		if candidate.Row != ix.Row && candidate.Col != ix.Col {
			return cur
		}
		cur = candidate
	}
}

// refPathsIntersection returns the shared anchor of two neighbors' glide
// segments, when one exists: either both reference the same anchor, or one
// neighbor's cardinal segment passes through the other's anchor.
func refPathsIntersection(n1, ref1, n2, ref2 GridIndex) (GridIndex, bool) {
	if ref1 == ref2 {
		return ref1, true
	}
	if isCardinal(n1, ref1) && collinearBetween(ref2, n1, ref1) {
		return ref2, true
	}
	if isCardinal(n2, ref2) && collinearBetween(ref1, n2, ref2) {
		return ref1, true
	}
	return GridIndex{}, false
}

// isLineIntersecting samples the terrain along the segment from anchor r
// (at altitude hR) to target ix and compares each sample against the
// straight glide line. minClearance pads the terrain sample
// up before the comparison, so a line that merely grazes the ground at its
// clearance margin also counts as blocked. It increments checks[ix] by the
// sample count taken.
//
// Samples run from r (t=0) to ix (t=1); the single sample taken for an
// adjacent (distance-1) segment uses t=1, so it lands on ix itself rather
// than on the already-validated anchor.
func isLineIntersecting(grid *terrain.HeightGrid, r, ix GridIndex, hR, effGr, minClearance float64, checks [][]int) bool {
	if math.IsInf(effGr, 1) {
		return true
	}

	l := l2Distance(r, ix)
	n := int(math.Ceil(l))
	if n < 1 {
		n = 1
	}
	hIx := hR - l*grid.CellSize*effGr

	intersects := false
	for i := 0; i < n; i++ {
		t := 1.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		row := int(math.Floor(lerp(float64(r.Row), float64(ix.Row), t)))
		col := int(math.Floor(lerp(float64(r.Col), float64(ix.Col), t)))
		row = clampIdx(row, 0, grid.Rows()-1)
		col = clampIdx(col, 0, grid.Cols()-1)

		terrainH := grid.At(row, col) + minClearance
		glideH := lerp(hR, hIx, t)
		if terrainH > glideH {
			intersects = true
		}
		logging.TraceDefault("los sample", "row", row, "col", col, "terrain", terrainH, "glide", glideH)
	}

	checks[ix.Row][ix.Col] += n
	metrics.Get().IntersectionChecks.Add(float64(n))
	return intersects
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clampIdx(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
