// Package reachability implements the terrain-aware glide reachability
// search: a grid-based best-first expansion that propagates arrival
// altitudes outward from a launch point subject to a wind-modulated glide
// ratio, enforcing terrain clearance via line-of-sight tests.
package reachability

import (
	"errors"

	"glidecone/pkg/pqueue"
)

// ErrRefinalized is raised when a popped cell is already present in the
// explored set — an invariant violation, not a runtime condition: every
// cell is finalized at most once.
var ErrRefinalized = errors.New("reachability: cell finalized twice")

// ErrMissingRef is raised when a Node references an ancestor absent from
// the explored set — an invariant violation.
var ErrMissingRef = errors.New("reachability: ref missing from explored set")

// GridIndex is a (row, col) coordinate into a HeightGrid.
type GridIndex struct {
	Row, Col int
}

// Node is an entry in the explored or frontier set.
type Node struct {
	// Height is the arrival altitude MSL at this cell, in meters.
	Height float64
	// Ix is the cell's own index.
	Ix GridIndex
	// Ref is the anchor of the straight glide segment terminating at this
	// cell, or nil for the start node.
	Ref *GridIndex
	// Distance is the cumulative path length in meters along the kinked
	// glide path from start.
	Distance float64
	// Reachable is true iff Height clears the ground elevation at Ix.
	Reachable bool
	// EffectiveGlideRatio is the glide ratio used on the segment
	// terminating here, kept for diagnostics.
	EffectiveGlideRatio float64
}

// Query bundles the per-search glide parameters.
type Query struct {
	GlideRatio       float64
	TrimSpeed        float64
	WindDirectionRad float64
	WindSpeed        float64
	AdditionalHeight float64

	// MinClearance is added to the sampled terrain height before comparing
	// it against the glide line in a line-of-sight check, so a path that
	// merely grazes the ground is treated the same as one that intersects
	// it. With zero, only a glide line below the terrain is blocked; a line
	// exactly at ground level clears.
	MinClearance float64
	// DisableCompression turns off the straight-line reference compression
	// of getStraightLineRef, making every Node reference its immediate
	// propagation anchor instead of a collapsed ancestor. Left false (the
	// zero value) compression is always applied, matching the search's
	// historical behavior; set true only to trade longer reconstructed
	// paths for skipping the compression re-validation work.
	DisableCompression bool
	// MaxRegionRadius caps the DEM region radius BuildRegion assembles
	// around the launch point, regardless of how far the glide ratio and
	// start height would otherwise project the search.
	MaxRegionRadius float64
}

// SearchState holds everything a search accumulates: the finalized nodes,
// the live frontier queue, and the per-cell line-of-sight probe counter.
type SearchState struct {
	Explored           map[GridIndex]Node
	IntersectionChecks [][]int

	queue *pqueue.Queue[GridIndex, Node]
}
