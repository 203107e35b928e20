package terrain

import "math"

// SampleElevation returns the ground elevation at a single lat/lon point,
// bilinearly interpolated between the four nearest raster samples of
// whichever tile covers it. Used to seed a search's start height before a
// full region grid has been assembled.
func SampleElevation(cache *TileCache, lat, lon float64) (float64, error) {
	key := tileKeyFor(lat, lon)
	t, err := cache.getByKey(key)
	if err != nil {
		return 0, err
	}

	fracLat := lat - float64(key.lat)
	fracLon := lon - float64(key.lon)

	// t.at(0,0) is the tile's south-west corner (tile.go flips disk row 0,
	// the north edge, to row dim-1 in memory), so row grows with latitude.
	rowF := fracLat * float64(t.dim-1)
	colF := fracLon * float64(t.dim-1)

	r0 := clampInt(int(math.Floor(rowF)), 0, t.dim-1)
	c0 := clampInt(int(math.Floor(colF)), 0, t.dim-1)
	r1 := clampInt(r0+1, 0, t.dim-1)
	c1 := clampInt(c0+1, 0, t.dim-1)

	tr := rowF - float64(r0)
	tc := colF - float64(c0)

	h00 := float64(t.at(r0, c0))
	h10 := float64(t.at(r1, c0))
	h01 := float64(t.at(r0, c1))
	h11 := float64(t.at(r1, c1))

	h0 := lerp(h00, h10, tr)
	h1 := lerp(h01, h11, tr)
	return lerp(h0, h1, tc), nil
}
