package reachability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"glidecone/pkg/terrain"
)

func flatGrid(rows, cols int, cellSize float64) *terrain.HeightGrid {
	heights := make([][]float64, rows)
	for r := range heights {
		heights[r] = make([]float64, cols)
	}
	return terrain.NewHeightGrid(heights, cellSize, 0, float64(rows-1)*cellSize/111000, 0, float64(cols-1)*cellSize/111000)
}

func TestL2Distance(t *testing.T) {
	assert.Equal(t, 5.0, l2Distance(GridIndex{0, 0}, GridIndex{3, 4}))
	assert.Equal(t, 0.0, l2Distance(GridIndex{2, 2}, GridIndex{2, 2}))
}

func TestGetStraightLineRef_CollapsesCollinearChain(t *testing.T) {
	// start -> (0,1) -> (0,2) -> ix=(0,3), all along row 0: should collapse
	// all the way back to start.
	explored := map[GridIndex]Node{
		{0, 0}: {Ix: GridIndex{0, 0}, Ref: nil},
		{0, 1}: {Ix: GridIndex{0, 1}, Ref: ptr(GridIndex{0, 0})},
		{0, 2}: {Ix: GridIndex{0, 2}, Ref: ptr(GridIndex{0, 1})},
	}
	got := getStraightLineRef(explored, GridIndex{0, 3}, GridIndex{0, 2})
	assert.Equal(t, GridIndex{0, 0}, got)
}

func TestGetStraightLineRef_StopsAtNonCollinearAncestor(t *testing.T) {
	// ancestor's ref kinks off-axis relative to ix: chain must not collapse
	// past the kink.
	explored := map[GridIndex]Node{
		{1, 0}: {Ix: GridIndex{1, 0}, Ref: nil},
		{0, 1}: {Ix: GridIndex{0, 1}, Ref: ptr(GridIndex{1, 0})}, // not on row 0 or col 2
	}
	got := getStraightLineRef(explored, GridIndex{0, 2}, GridIndex{0, 1})
	assert.Equal(t, GridIndex{0, 1}, got)
}

func TestRefPathsIntersection_SharedRef(t *testing.T) {
	anchor, ok := refPathsIntersection(GridIndex{1, 0}, GridIndex{0, 0}, GridIndex{0, 1}, GridIndex{0, 0})
	assert.True(t, ok)
	assert.Equal(t, GridIndex{0, 0}, anchor)
}

func TestRefPathsIntersection_CollinearFallback(t *testing.T) {
	// n1=(1,2) with ref1=(1,0): the cardinal segment n1->ref1 runs along
	// row 1, cols 0..2. ref2=(1,1) lies on it.
	anchor, ok := refPathsIntersection(GridIndex{1, 2}, GridIndex{1, 0}, GridIndex{2, 1}, GridIndex{1, 1})
	assert.True(t, ok)
	assert.Equal(t, GridIndex{1, 1}, anchor)
}

func TestRefPathsIntersection_NoIntersection(t *testing.T) {
	_, ok := refPathsIntersection(GridIndex{1, 0}, GridIndex{0, 0}, GridIndex{0, 1}, GridIndex{2, 2})
	assert.False(t, ok)
}

func TestIsLineIntersecting_ClearPath(t *testing.T) {
	grid := flatGrid(10, 10, 100)
	checks := make2D(10, 10)
	intersects := isLineIntersecting(grid, GridIndex{0, 0}, GridIndex{0, 9}, 1000, 0.125, 0, checks)
	assert.False(t, intersects)
	assert.Greater(t, checks[0][9], 0)
}

func TestIsLineIntersecting_MinClearanceBlocksGrazingPath(t *testing.T) {
	// A glide line running exactly at ground level clears with zero
	// clearance but is blocked once a clearance margin is required.
	heights := make([][]float64, 1)
	heights[0] = make([]float64, 10)
	grid := terrain.NewHeightGrid(heights, 100, 0, 0.01, 0, 0.01)
	checks := make2D(1, 10)

	assert.False(t, isLineIntersecting(grid, GridIndex{0, 0}, GridIndex{0, 9}, 0, 0, 0, checks))
	assert.True(t, isLineIntersecting(grid, GridIndex{0, 0}, GridIndex{0, 9}, 0, 0, 10, checks))
}

func TestIsLineIntersecting_SpikeBlocks(t *testing.T) {
	heights := make([][]float64, 10)
	for r := range heights {
		heights[r] = make([]float64, 10)
	}
	heights[0][5] = 10000 // a spike well above any plausible glide line
	grid := terrain.NewHeightGrid(heights, 100, 0, 0.01, 0, 0.01)
	checks := make2D(10, 10)
	intersects := isLineIntersecting(grid, GridIndex{0, 0}, GridIndex{0, 9}, 1000, 0.125, 0, checks)
	assert.True(t, intersects)
}

func TestIsLineIntersecting_AdjacentCellSpikeBlocks(t *testing.T) {
	// A single-cell hop (l2Distance==1, so n==1) must still sample the
	// target cell ix, not just re-check the already-validated anchor r.
	heights := make([][]float64, 1)
	heights[0] = []float64{0, 10000}
	grid := terrain.NewHeightGrid(heights, 100, 0, 0.001, 0, 0.001)
	checks := make2D(1, 2)

	intersects := isLineIntersecting(grid, GridIndex{0, 0}, GridIndex{0, 1}, 1000, 0.125, 0, checks)
	assert.True(t, intersects, "a spike at the adjacent target cell must be detected even on a distance-1 segment")
	assert.Equal(t, 1, checks[0][1])
}

func TestIsLineIntersecting_UnreachableAlwaysIntersects(t *testing.T) {
	grid := flatGrid(10, 10, 100)
	checks := make2D(10, 10)
	intersects := isLineIntersecting(grid, GridIndex{0, 0}, GridIndex{0, 9}, 1000, math.Inf(1), 0, checks)
	assert.True(t, intersects)
}

func ptr(ix GridIndex) *GridIndex { return &ix }
