package reachability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glidecone/pkg/pqueue"
	"glidecone/pkg/terrain"
)

func makeHeights(rows, cols int, fn func(r, c int) float64) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
		for c := range out[r] {
			out[r][c] = fn(r, c)
		}
	}
	return out
}

func gridOf(heights [][]float64, cellSize float64) *terrain.HeightGrid {
	rows := len(heights)
	cols := 0
	if rows > 0 {
		cols = len(heights[0])
	}
	return terrain.NewHeightGrid(heights, cellSize, 0, float64(rows)*cellSize/111000, 0, float64(cols)*cellSize/111000)
}

// Scenario 1: flat terrain, no wind — reachable set is (approximately) a
// disk around start, altitude decreasing linearly with distance.
func TestSearch_FlatTerrainNoWind_DiskOfReach(t *testing.T) {
	rows, cols := 200, 200
	grid := gridOf(makeHeights(rows, cols, func(r, c int) float64 { return 0 }), 100)
	start := GridIndex{100, 100}
	q := Query{GlideRatio: 1.0 / 8.0, TrimSpeed: 11}

	state := search(grid, start, 1000, q, nil)

	startNode := state.Explored[start]
	assert.Equal(t, 1000.0, startNode.Height)
	assert.Nil(t, startNode.Ref)

	// altitude / glide_ratio / cell_size: the theoretical glide radius in cells.
	expectedRadiusCells := 1000.0 / 0.125 / 100.0

	justInside := GridIndex{100, 100 + int(expectedRadiusCells) - 2}
	node, ok := state.Explored[justInside]
	if ok {
		assert.True(t, node.Reachable, "cell just inside the glide radius should be reachable")
	}

	justOutside := GridIndex{100, 100 + int(expectedRadiusCells) + 5}
	if outNode, ok := state.Explored[justOutside]; ok {
		assert.False(t, outNode.Reachable, "cell well beyond the glide radius should be unreachable")
	}

	for ix, node := range state.Explored {
		if node.Ref == nil {
			continue
		}
		ref := state.Explored[*node.Ref]
		assert.LessOrEqual(t, node.Height, ref.Height+1e-6,
			"altitude monotonicity violated at %v", ix)
		assert.Equal(t, node.Reachable, node.Height > grid.At(ix.Row, ix.Col))
	}
}

// Scenario 2: wind_speed == trim_speed from due east collapses reachability
// to the western half-plane; cells due east of start are unreachable.
func TestSearch_StrongEastWind_CollapsesToWestHalfPlane(t *testing.T) {
	rows, cols := 60, 60
	grid := gridOf(makeHeights(rows, cols, func(r, c int) float64 { return 0 }), 100)
	start := GridIndex{30, 30}
	// Wind direction is "from" convention: from the east means wind blows
	// toward the west, i.e. travel due east is straight into the wind.
	q := Query{GlideRatio: 1.0 / 8.0, TrimSpeed: 11, WindSpeed: 11, WindDirectionRad: math.Pi / 2}

	state := search(grid, start, 500, q, nil)

	// Wind speed equals trim speed, so the headwind (east) and crosswind
	// (north/south) components each exactly consume the trim airspeed
	// budget: only bearings with a westward (tailwind) component keep a
	// positive effective speed, so propagation stays west of the start column.
	eastFar := GridIndex{30, 55}
	_, eastReached := state.Explored[eastFar]
	assert.False(t, eastReached, "due-east travel is a pure headwind at wind==trim speed and must never propagate")

	north := GridIndex{29, 30}
	_, northReached := state.Explored[north]
	assert.False(t, northReached, "north/south travel is a pure crosswind at wind==trim speed and must never propagate")

	westFar := GridIndex{30, 5}
	westNode, westReached := state.Explored[westFar]
	require.True(t, westReached, "due-west travel is a tailwind boost and should reach across the grid")
	assert.True(t, westNode.Reachable)
}

// Scenario 3: sloped terrain — downhill cells extend reach, steep uphill
// cells go unreachable once the glide line can no longer clear the slope.
func TestSearch_SlopedTerrain_UphillUnreachable(t *testing.T) {
	rows, cols := 1, 200
	grid := gridOf(makeHeights(rows, cols, func(r, c int) float64 { return 2 * float64(c) }), 10)
	start := GridIndex{0, 100}
	q := Query{GlideRatio: 1.0 / 10.0, TrimSpeed: 11}

	// 200m AGL above the 200m ground at start. Gliding costs 1m of altitude
	// per 10m cell; the terrain climbs 2m per cell eastward, so the uphill
	// boundary sits where 400-(c-100) stops clearing 2c, i.e. c=166.
	state := search(grid, start, 400, q, nil)

	lastUp, ok := state.Explored[GridIndex{0, 166}]
	require.True(t, ok)
	assert.True(t, lastUp.Reachable, "col 166 still clears the slope by 2m")

	if boundary, ok := state.Explored[GridIndex{0, 167}]; ok {
		assert.False(t, boundary.Reachable, "col 167 arrives 1m below the slope")
	}
	_, beyond := state.Explored[GridIndex{0, 180}]
	assert.False(t, beyond, "expansion must stop at the uphill boundary, not tunnel through the slope")

	downhill, ok := state.Explored[GridIndex{0, 1}]
	require.True(t, ok)
	assert.True(t, downhill.Reachable, "downhill cells stay reachable to the grid edge")
}

// Scenario 4: a terrain spike between start and a far cell makes the direct
// line-of-sight intersect; with no alternative cardinal route around it in
// this 1-D strip, the far cell never becomes reachable.
func TestSearch_SpikeBlocksDirectLine(t *testing.T) {
	rows, cols := 1, 50
	heights := makeHeights(rows, cols, func(r, c int) float64 { return 0 })
	heights[0][25] = 100000 // an impassable spike
	grid := gridOf(heights, 100)
	start := GridIndex{0, 0}
	q := Query{GlideRatio: 1.0 / 8.0, TrimSpeed: 11}

	state := search(grid, start, 1000, q, nil)

	farSide, ok := state.Explored[GridIndex{0, 49}]
	if ok {
		assert.False(t, farSide.Reachable)
	}
}

// Scenario 5: a straight run of cardinal propagations collapses to the
// earliest collinear ancestor rather than the immediate neighbor.
func TestSearch_StraightLineCompression(t *testing.T) {
	rows, cols := 1, 10
	grid := gridOf(makeHeights(rows, cols, func(r, c int) float64 { return 0 }), 100)
	start := GridIndex{0, 0}
	q := Query{GlideRatio: 1.0 / 8.0, TrimSpeed: 11}

	state := search(grid, start, 1000, q, nil)

	last := GridIndex{0, cols - 1}
	node, ok := state.Explored[last]
	require.True(t, ok)
	require.NotNil(t, node.Ref)
	assert.Equal(t, start, *node.Ref, "collinear run along a single row should collapse back to start")
}

// Scenario 6: a start with no reachable neighbors — search finalizes only
// the start cell.
func TestSearch_IsolatedPeak_OnlyStartFinalized(t *testing.T) {
	rows, cols := 5, 5
	heights := makeHeights(rows, cols, func(r, c int) float64 { return 100000 })
	heights[2][2] = 0 // the start cell, walled in by terrain far above it
	grid := gridOf(heights, 100)
	start := GridIndex{2, 2}
	// Zero starting height above a sky-high surrounding terrain: every
	// neighbor's glide line is instantly underground, unreachable.
	q := Query{GlideRatio: 1.0 / 8.0, TrimSpeed: 11}

	state := search(grid, start, 0, q, nil)

	require.Contains(t, state.Explored, start)
	assert.Len(t, state.Explored, 1, "an unreachable start must not propagate to any neighbor")
	for _, m := range cardinalNeighbors(start, rows, cols) {
		assert.NotContains(t, state.Explored, m, "immediate neighbor of an isolated peak must never be finalized")
	}
	for ix, node := range state.Explored {
		if ix == start {
			continue
		}
		assert.False(t, node.Reachable)
	}
}

// Invariant: pops come off the queue in non-decreasing priority, i.e.
// non-increasing height.
func TestSearch_FinalizationOrderIsNonIncreasingHeight(t *testing.T) {
	rows, cols := 30, 30
	grid := gridOf(makeHeights(rows, cols, func(r, c int) float64 { return 0 }), 100)
	start := GridIndex{15, 15}
	q := Query{GlideRatio: 1.0 / 8.0, TrimSpeed: 11}

	// Re-run the main loop manually to observe pop order, mirroring search().
	rowsN, colsN := grid.Rows(), grid.Cols()
	state := &SearchState{Explored: make(map[GridIndex]Node), IntersectionChecks: make2D(rowsN, colsN)}
	state.queue = pqueue.New[GridIndex, Node]()
	state.queue.Put(start, Node{Height: 1000, Ix: start, Reachable: true}, -1000)

	var heights []float64
	for state.queue.Len() > 0 {
		key, node, _ := state.queue.Pop()
		state.Explored[key] = node
		heights = append(heights, node.Height)
		for _, m := range cardinalNeighbors(key, rowsN, colsN) {
			if _, ok := state.Explored[m]; ok {
				continue
			}
			nodeUpdate(m, grid, state, q)
		}
	}

	for i := 1; i < len(heights); i++ {
		assert.LessOrEqual(t, heights[i], heights[i-1]+1e-9)
	}
}
