package terrain

import (
	"fmt"
	"math"

	"glidecone/pkg/geo"
)

// arcMinuteMeters is the length of one nautical mile / one arc-minute of
// latitude, used throughout to convert degrees to meters and back.
const arcMinuteMeters = 1852.0

// HeightGrid is an isotropic raster of ground elevations in meters.
// heights[0][0] is the south-west corner; row index increases with
// latitude, column index increases with longitude. CellSize is equal on
// both axes by construction and is never mutated after assembly.
type HeightGrid struct {
	heights  [][]float64
	CellSize float64
	LatMin   float64
	LatMax   float64
	LonMin   float64
	LonMax   float64
}

// NewHeightGrid builds a HeightGrid directly from an already-assembled
// heights raster, for synthetic grids (tests, or a caller that already has
// an isotropic raster from elsewhere) that bypass tile assembly entirely.
func NewHeightGrid(heights [][]float64, cellSize, latMin, latMax, lonMin, lonMax float64) *HeightGrid {
	return &HeightGrid{
		heights:  heights,
		CellSize: cellSize,
		LatMin:   latMin,
		LatMax:   latMax,
		LonMin:   lonMin,
		LonMax:   lonMax,
	}
}

// Rows returns the number of rows (latitude steps).
func (g *HeightGrid) Rows() int { return len(g.heights) }

// Cols returns the number of columns (longitude steps), or 0 for an empty grid.
func (g *HeightGrid) Cols() int {
	if len(g.heights) == 0 {
		return 0
	}
	return len(g.heights[0])
}

// At returns the ground elevation at (row, col).
func (g *HeightGrid) At(row, col int) float64 {
	return g.heights[row][col]
}

// LatLon returns the approximate geographic coordinate of cell (row, col).
func (g *HeightGrid) LatLon(row, col int) (lat, lon float64) {
	rows, cols := g.Rows(), g.Cols()
	lat = g.LatMin
	if rows > 1 {
		lat += (g.LatMax - g.LatMin) * float64(row) / float64(rows-1)
	}
	lon = g.LonMin
	if cols > 1 {
		lon += (g.LonMax - g.LonMin) * float64(col) / float64(cols-1)
	}
	return lat, lon
}

// CenterIndex returns the grid cell nearest to the geometric center of the
// bounding box — the conventional start index for a search launched "from
// the middle" of an assembled region.
func (g *HeightGrid) CenterIndex() (row, col int) {
	return g.Rows() / 2, g.Cols() / 2
}

// DiagonalMeters returns the great-circle distance between the grid's
// south-west and north-east corners, a real-world cross-check on the
// degree-arithmetic cell_size computed during assembly.
func (g *HeightGrid) DiagonalMeters() float64 {
	sw := geo.Point{Lat: g.LatMin, Lon: g.LonMin}
	ne := geo.Point{Lat: g.LatMax, Lon: g.LonMax}
	return geo.Distance(sw, ne)
}

// Crop returns a new grid restricted to [rowLo,rowHi] x [colLo,colHi]
// (inclusive), with the lat/lon bounding box translated proportionally.
func (g *HeightGrid) Crop(rowLo, rowHi, colLo, colHi int) *HeightGrid {
	rows, cols := g.Rows(), g.Cols()
	rowLo, rowHi = clampRange(rowLo, rowHi, rows)
	colLo, colHi = clampRange(colLo, colHi, cols)

	out := make([][]float64, rowHi-rowLo+1)
	for r := rowLo; r <= rowHi; r++ {
		row := make([]float64, colHi-colLo+1)
		copy(row, g.heights[r][colLo:colHi+1])
		out[r-rowLo] = row
	}

	latLo, lonLo := g.LatLon(rowLo, colLo)
	latHi, lonHi := g.LatLon(rowHi, colHi)

	return &HeightGrid{
		heights:  out,
		CellSize: g.CellSize,
		LatMin:   latLo,
		LatMax:   latHi,
		LonMin:   lonLo,
		LonMax:   lonHi,
	}
}

func clampRange(lo, hi, n int) (int, int) {
	if n == 0 {
		return 0, -1
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Downsample returns a grid resampled by factor, with CellSize/factor (a
// factor below 1 coarsens the grid to a bigger cell size; above 1 would
// up-sample, which is never requested in practice since DEM tiles bound the
// native resolution).
func (g *HeightGrid) Downsample(factor float64) *HeightGrid {
	if factor <= 0 {
		panic("terrain: Downsample: factor must be positive")
	}
	if factor == 1 {
		return g
	}

	inRows, inCols := g.Rows(), g.Cols()
	outRows := maxInt(1, int(math.Round(float64(inRows)*factor)))
	outCols := maxInt(1, int(math.Round(float64(inCols)*factor)))

	return &HeightGrid{
		heights:  resampleBilinear(g.heights, outRows, outCols),
		CellSize: g.CellSize / factor,
		LatMin:   g.LatMin,
		LatMax:   g.LatMax,
		LonMin:   g.LonMin,
		LonMax:   g.LonMax,
	}
}

// DownsampleBicubic is Downsample's cubic-convolution counterpart: the
// search engine always calls Downsample, but a contour/height-image
// renderer consuming the returned grid wants the smoother antialiased
// result bicubic resampling gives on a coarsened raster meant for display
// rather than line-of-sight sampling.
func (g *HeightGrid) DownsampleBicubic(factor float64) *HeightGrid {
	if factor <= 0 {
		panic("terrain: DownsampleBicubic: factor must be positive")
	}
	if factor == 1 {
		return g
	}

	inRows, inCols := g.Rows(), g.Cols()
	outRows := maxInt(1, int(math.Round(float64(inRows)*factor)))
	outCols := maxInt(1, int(math.Round(float64(inCols)*factor)))

	return &HeightGrid{
		heights:  resampleBicubic(g.heights, outRows, outCols),
		CellSize: g.CellSize / factor,
		LatMin:   g.LatMin,
		LatMax:   g.LatMax,
		LonMin:   g.LonMin,
		LonMax:   g.LonMax,
	}
}

// minCellSizeMeters is the smallest legal cell size: the metric length of
// one arc-second of latitude, the finest spacing any DEM tile in this
// format can express.
const minCellSizeMeters = arcMinuteMeters / 60.0

// BuildRegion assembles a HeightGrid covering a square of the given radius
// (meters) around (lat, lon), stitching whatever DEM tiles the region spans
// and resampling anisotropically so the result is isotropic.
func BuildRegion(cache *TileCache, lat, lon, radiusM float64) (*HeightGrid, error) {
	if radiusM <= 0 {
		return nil, fmt.Errorf("terrain: BuildRegion: radius must be positive, got %v", radiusM)
	}

	dLat := radiusM / (arcMinuteMeters * 60.0)
	cosLat := math.Cos(lat * math.Pi / 180.0)
	if math.Abs(cosLat) < 1e-6 {
		cosLat = 1e-6
	}
	dLon := dLat / cosLat

	latLo := int(math.Floor(lat - dLat))
	latHi := int(math.Floor(lat + dLat))
	lonLo := int(math.Floor(lon - dLon))
	lonHi := int(math.Floor(lon + dLon))

	composite, degStep, err := stitchTiles(cache, latLo, latHi, lonLo, lonHi)
	if err != nil {
		return nil, err
	}

	compositeLatMin := float64(latLo)
	compositeLonMin := float64(lonLo)

	reqLatMin, reqLatMax := lat-dLat, lat+dLat
	reqLonMin, reqLonMax := lon-dLon, lon+dLon

	rowLo := int(math.Floor((reqLatMin - compositeLatMin) / degStep))
	rowHi := int(math.Floor((reqLatMax - compositeLatMin) / degStep))
	colLo := int(math.Floor((reqLonMin - compositeLonMin) / degStep))
	colHi := int(math.Floor((reqLonMax - compositeLonMin) / degStep))

	totalRows, totalCols := len(composite), 0
	if totalRows > 0 {
		totalCols = len(composite[0])
	}
	rowLo, rowHi = clampRange(rowLo, rowHi, totalRows)
	colLo, colHi = clampRange(colLo, colHi, totalCols)

	cropped := make([][]float64, rowHi-rowLo+1)
	for r := rowLo; r <= rowHi; r++ {
		row := make([]float64, colHi-colLo+1)
		copy(row, composite[r][colLo:colHi+1])
		cropped[r-rowLo] = row
	}

	latResM := degStep * arcMinuteMeters * 60.0
	lonResM := degStep * arcMinuteMeters * 60.0 * cosLat
	cellSize := math.Max(latResM, lonResM)
	if cellSize < minCellSizeMeters {
		cellSize = minCellSizeMeters
	}

	rowScale := latResM / cellSize
	colScale := lonResM / cellSize
	outRows := maxInt(1, int(math.Round(float64(len(cropped))*rowScale)))
	outCols := maxInt(1, int(math.Round(float64(len(cropped[0]))*colScale)))

	resampled := resampleBilinear(cropped, outRows, outCols)

	return &HeightGrid{
		heights:  resampled,
		CellSize: cellSize,
		LatMin:   compositeLatMin + float64(rowLo)*degStep,
		LatMax:   compositeLatMin + float64(rowHi+1)*degStep,
		LonMin:   compositeLonMin + float64(colLo)*degStep,
		LonMax:   compositeLonMin + float64(colHi+1)*degStep,
	}, nil
}

// stitchTiles loads every tile covering [latLo..latHi] x [lonLo..lonHi] and
// concatenates them column-wise within a latitude row, then row-wise across
// latitudes, producing a single south-at-row-0 raster plus its per-sample
// degree step (assumed uniform across all loaded tiles).
func stitchTiles(cache *TileCache, latLo, latHi, lonLo, lonHi int) ([][]float64, float64, error) {
	nLatTiles := latHi - latLo + 1
	nLonTiles := lonHi - lonLo + 1

	tiles := make([][]*tile, nLatTiles)
	dim := 0
	for li := 0; li < nLatTiles; li++ {
		tiles[li] = make([]*tile, nLonTiles)
		for lj := 0; lj < nLonTiles; lj++ {
			t, err := cache.getByKey(tileKey{lat: latLo + li, lon: lonLo + lj})
			if err != nil {
				return nil, 0, err
			}
			tiles[li][lj] = t
			if dim == 0 {
				dim = t.dim
			}
		}
	}

	totalRows := nLatTiles * dim
	totalCols := nLonTiles * dim
	composite := make([][]float64, totalRows)
	for r := range composite {
		composite[r] = make([]float64, totalCols)
	}

	for li := 0; li < nLatTiles; li++ {
		for lj := 0; lj < nLonTiles; lj++ {
			t := tiles[li][lj]
			for r := 0; r < t.dim; r++ {
				destRow := li*dim + r
				for c := 0; c < t.dim; c++ {
					composite[destRow][lj*dim+c] = float64(t.at(r, c))
				}
			}
		}
	}

	degStep := 1.0 / float64(dim)
	return composite, degStep, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
