package reachability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"glidecone/internal/metrics"
	"glidecone/pkg/terrain"
)

// SearchFromPoint runs the full orchestration: sample the ground height at
// (lat,lon), estimate the reach radius, assemble and downsample a region
// grid, and run the search from its center cell.
//
// ctx may carry a search ID attached with WithSearchID; if absent, one is
// generated so concurrent searches' log lines can be told apart.
func SearchFromPoint(ctx context.Context, cache *terrain.TileCache, lat, lon, desiredCellSize float64, q Query) (*SearchState, *terrain.HeightGrid, error) {
	searchID := searchIDFromContext(ctx)
	logger := slog.Default().With("search_id", searchID)

	timer := prometheus.NewTimer(metrics.Get().SearchDuration)
	defer timer.ObserveDuration()

	groundHeight, err := terrain.SampleElevation(cache, lat, lon)
	if err != nil {
		metrics.Get().SearchErrors.WithLabelValues("tile_load").Inc()
		return nil, nil, fmt.Errorf("reachability: sample start elevation: %w", err)
	}
	startHeight := groundHeight + q.AdditionalHeight

	maxGr := q.GlideRatio / ((q.WindSpeed + q.TrimSpeed) / q.TrimSpeed)
	maxDistance := startHeight / maxGr
	if q.MaxRegionRadius > 0 && maxDistance > q.MaxRegionRadius {
		logger.Warn("projected reach exceeds configured region radius cap, clamping",
			"projected", maxDistance, "cap", q.MaxRegionRadius)
		maxDistance = q.MaxRegionRadius
	}

	logger.Info("search starting", "lat", lat, "lon", lon, "start_height", startHeight, "max_distance", maxDistance)

	grid, err := terrain.BuildRegion(cache, lat, lon, maxDistance+1)
	if err != nil {
		metrics.Get().SearchErrors.WithLabelValues("build_region").Inc()
		return nil, nil, fmt.Errorf("reachability: build region: %w", err)
	}

	if desiredCellSize < grid.CellSize {
		logger.Warn("requested cell size below native resolution, clamping",
			"requested", desiredCellSize, "native", grid.CellSize)
		desiredCellSize = grid.CellSize
	}
	grid = grid.Downsample(grid.CellSize / desiredCellSize)

	logger.Debug("region assembled", "rows", grid.Rows(), "cols", grid.Cols(),
		"cell_size", grid.CellSize, "diagonal_m", grid.DiagonalMeters())

	startRow, startCol := grid.CenterIndex()
	start := GridIndex{Row: startRow, Col: startCol}

	state := search(grid, start, startHeight, q, logger)

	croppedState, croppedGrid := reindex(state, grid)

	logger.Info("search finished", "explored", len(croppedState.Explored))
	return croppedState, croppedGrid, nil
}

func searchIDFromContext(ctx context.Context) string {
	if ctx != nil {
		if v := ctx.Value(searchIDKey{}); v != nil {
			if id, ok := v.(uuid.UUID); ok {
				return id.String()
			}
		}
	}
	return uuid.NewString()
}

type searchIDKey struct{}

// WithSearchID attaches a correlation ID to ctx for SearchFromPoint to log
// under; callers that want to thread a pre-existing ID (e.g. from an
// incoming HTTP request) use this instead of letting one be generated.
func WithSearchID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, searchIDKey{}, id)
}

// reindex crops the grid and explored set to the bounding box of reachable
// cells (falling back to the bounding box of all explored cells if nothing
// is reachable), translating every Ix and Ref into the cropped frame.
func reindex(state *SearchState, grid *terrain.HeightGrid) (*SearchState, *terrain.HeightGrid) {
	rowLo, rowHi, colLo, colHi, ok := boundingBox(state.Explored, true)
	if !ok {
		rowLo, rowHi, colLo, colHi, ok = boundingBox(state.Explored, false)
	}
	if !ok {
		return &SearchState{Explored: map[GridIndex]Node{}, IntersectionChecks: [][]int{}}, grid.Crop(0, -1, 0, -1)
	}

	croppedGrid := grid.Crop(rowLo, rowHi, colLo, colHi)

	translate := func(ix GridIndex) GridIndex {
		return GridIndex{Row: ix.Row - rowLo, Col: ix.Col - colLo}
	}

	explored := make(map[GridIndex]Node, len(state.Explored))
	for ix, node := range state.Explored {
		if ix.Row < rowLo || ix.Row > rowHi || ix.Col < colLo || ix.Col > colHi {
			continue
		}
		newNode := node
		newIx := translate(ix)
		newNode.Ix = newIx
		if node.Ref != nil {
			r := translate(*node.Ref)
			newNode.Ref = &r
		}
		explored[newIx] = newNode
	}

	checks := make([][]int, rowHi-rowLo+1)
	for r := rowLo; r <= rowHi; r++ {
		row := make([]int, colHi-colLo+1)
		if r < len(state.IntersectionChecks) {
			copy(row, state.IntersectionChecks[r][colLo:min(colHi+1, len(state.IntersectionChecks[r]))])
		}
		checks[r-rowLo] = row
	}

	return &SearchState{Explored: explored, IntersectionChecks: checks}, croppedGrid
}

func boundingBox(explored map[GridIndex]Node, reachableOnly bool) (rowLo, rowHi, colLo, colHi int, ok bool) {
	first := true
	for ix, node := range explored {
		if reachableOnly && !node.Reachable {
			continue
		}
		if first {
			rowLo, rowHi, colLo, colHi = ix.Row, ix.Row, ix.Col, ix.Col
			first = false
			continue
		}
		if ix.Row < rowLo {
			rowLo = ix.Row
		}
		if ix.Row > rowHi {
			rowHi = ix.Row
		}
		if ix.Col < colLo {
			colLo = ix.Col
		}
		if ix.Col > colHi {
			colHi = ix.Col
		}
	}
	return rowLo, rowHi, colLo, colHi, !first
}
