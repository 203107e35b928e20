// Package terrain loads SRTM-style .hgt DEM tiles and assembles them into
// isotropic metric height grids for the reachability search.
package terrain

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// noDataThreshold: signed sample values below this are treated as no-data
// and clamped to 0, per the SRTM convention for ocean/void cells.
const noDataThreshold = -1000

// tileKey identifies a 1x1 degree DEM tile by the integer lat/lon of its
// south-west corner. Negative values encode southern/western hemispheres.
type tileKey struct {
	lat, lon int
}

// tile is one loaded 1x1 degree DEM raster, row 0 = south, oriented so that
// row/col increase with increasing latitude/longitude.
type tile struct {
	key    tileKey
	dim    int
	values []int16 // row-major, dim x dim, row 0 = south
}

func (t *tile) at(row, col int) int16 {
	return t.values[row*t.dim+col]
}

// tilePath returns the filesystem path of the tile covering (lat,lon)'s
// integer south-west corner, in the SRTM N{lat:02}E{lon:03}.hgt convention
// extended with S/W for the other three hemispheres.
func tilePath(dir string, key tileKey) string {
	latDir, latAbs := "N", key.lat
	if key.lat < 0 {
		latDir, latAbs = "S", -key.lat
	}
	lonDir, lonAbs := "E", key.lon
	if key.lon < 0 {
		lonDir, lonAbs = "W", -key.lon
	}
	name := fmt.Sprintf("%s%02d%s%03d.hgt", latDir, latAbs, lonDir, lonAbs)
	return filepath.Join(dir, name)
}

// tileKeyFor returns the south-west integer corner of the tile containing
// (lat, lon).
func tileKeyFor(lat, lon float64) tileKey {
	return tileKey{lat: int(math.Floor(lat)), lon: int(math.Floor(lon))}
}

// loadTile reads a whole .hgt file: big-endian signed 16-bit samples forming
// a square raster, row 0 on disk is the northernmost row. The in-memory tile
// flips rows so that row 0 is southernmost, matching HeightGrid's convention.
func loadTile(dir string, key tileKey) (*tile, error) {
	path := tilePath(dir, key)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: open tile %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("terrain: stat tile %s: %w", path, err)
	}

	size := info.Size()
	if size <= 0 || size%2 != 0 {
		return nil, fmt.Errorf("terrain: tile %s has odd byte size %d", path, size)
	}
	samples := size / 2
	dim := int(math.Sqrt(float64(samples)))
	if int64(dim)*int64(dim) != samples {
		return nil, fmt.Errorf("terrain: tile %s size %d is not a perfect square of 16-bit samples", path, size)
	}

	raw := make([]byte, size)
	if _, err := f.ReadAt(raw, 0); err != nil {
		return nil, fmt.Errorf("terrain: read tile %s: %w", path, err)
	}

	values := make([]int16, samples)
	for i := range values {
		v := int16(binary.BigEndian.Uint16(raw[i*2 : i*2+2]))
		if v < noDataThreshold {
			v = 0
		}
		values[i] = v
	}

	// File row 0 is north; flip so in-memory row 0 is south.
	flipped := make([]int16, samples)
	for r := 0; r < dim; r++ {
		srcRow := dim - 1 - r
		copy(flipped[r*dim:(r+1)*dim], values[srcRow*dim:(srcRow+1)*dim])
	}

	return &tile{key: key, dim: dim, values: flipped}, nil
}
