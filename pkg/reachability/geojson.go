package reachability

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"glidecone/pkg/terrain"
)

// ToFeatureCollection serializes every explored cell into a Point feature
// at the cell's lon/lat carrying height, agl, distance, reachable, size, gl
// and reference properties, giving callers a reusable, self-describing
// export independent of the HTTP boundary.
func (s *SearchState) ToFeatureCollection(grid *terrain.HeightGrid) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for ix, node := range s.Explored {
		lat, lon := grid.LatLon(ix.Row, ix.Col)
		f := geojson.NewFeature(orb.Point{lon, lat})

		agl := node.Height - grid.At(ix.Row, ix.Col)
		f.Properties["height"] = node.Height
		f.Properties["agl"] = agl
		f.Properties["distance"] = node.Distance
		f.Properties["reachable"] = node.Reachable
		f.Properties["size"] = grid.CellSize
		f.Properties["gl"] = node.EffectiveGlideRatio
		if node.Ref != nil {
			f.Properties["reference"] = []int{node.Ref.Row, node.Ref.Col}
		} else {
			f.Properties["reference"] = nil
		}

		fc.Append(f)
	}

	return fc
}
