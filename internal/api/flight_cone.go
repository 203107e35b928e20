package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"glidecone/pkg/config"
	"glidecone/pkg/reachability"
	"glidecone/pkg/terrain"
)

// FlightConeHandler serves GET /flight_cone: it parameterizes
// reachability.SearchFromPoint from query string values and serializes the
// resulting explored set as JSON. It owns no state beyond the shared tile
// cache and performs no caching of its own.
type FlightConeHandler struct {
	cache    *terrain.TileCache
	defaults config.SearchConfig
	jobs     chan struct{}
}

// NewFlightConeHandler builds a handler backed by cache. defaults supplies
// the glide ratio (which a request's glide_ratio parameter overrides) and
// the clearance margin, path-compression, and region-radius settings
// (which apply to every request); defaults.MaxConcurrentJobs bounds how
// many searches may run at once, queuing the rest.
func NewFlightConeHandler(cache *terrain.TileCache, defaults config.SearchConfig) *FlightConeHandler {
	jobs := defaults.MaxConcurrentJobs
	if jobs <= 0 {
		jobs = 1
	}
	return &FlightConeHandler{cache: cache, defaults: defaults, jobs: make(chan struct{}, jobs)}
}

// flightConeNode is the per-cell JSON shape of the flight cone response.
type flightConeNode struct {
	Index     [2]int   `json:"index"`
	Height    float64  `json:"height"`
	Distance  float64  `json:"distance"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Reference *[2]int  `json:"reference"`
	Size      float64  `json:"size"`
	AGL       float64  `json:"agl"`
	GL        float64  `json:"gl"`
}

type flightConeResponse struct {
	Rows     int              `json:"rows"`
	Cols     int              `json:"cols"`
	CellSize float64          `json:"cell_size"`
	LatMin   float64          `json:"lat_min"`
	LatMax   float64          `json:"lat_max"`
	LonMin   float64          `json:"lon_min"`
	LonMax   float64          `json:"lon_max"`
	Nodes    []flightConeNode `json:"nodes"`
}

// Handle implements http.HandlerFunc. Query parameters mirror
// reachability.Query, with wind_direction in degrees on the wire converted
// to radians before reaching the core.
func (h *FlightConeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	lat, errLat := queryFloat(r, "lat")
	lon, errLon := queryFloat(r, "lon")
	if errLat != nil || errLon != nil {
		http.Error(w, "lat and lon are required numeric query parameters", http.StatusBadRequest)
		return
	}

	cellSize := queryFloatDefault(r, "cell_size", 100)
	windDirectionDeg := queryFloatDefault(r, "wind_direction", 0)

	// h.defaults.GlideRatio is the configured L/D (e.g. 8.0 for an "8:1"
	// glider); reachability.Query.GlideRatio wants its reciprocal, the
	// fractional height lost per unit distance flown.
	defaultGlideRatio := 1.0 / 8.0
	if h.defaults.GlideRatio > 0 {
		defaultGlideRatio = 1.0 / h.defaults.GlideRatio
	}

	query := reachability.Query{
		GlideRatio:         queryFloatDefault(r, "glide_ratio", defaultGlideRatio),
		TrimSpeed:          queryFloatDefault(r, "trim_speed", 11),
		WindDirectionRad:   windDirectionDeg * math.Pi / 180,
		WindSpeed:          queryFloatDefault(r, "wind_speed", 0),
		AdditionalHeight:   queryFloatDefault(r, "additional_height", 0),
		MinClearance:       float64(h.defaults.MinClearance),
		DisableCompression: !h.defaults.CompressPaths,
		MaxRegionRadius:    float64(h.defaults.RegionRadius),
	}

	h.jobs <- struct{}{}
	defer func() { <-h.jobs }()

	state, grid, err := reachability.SearchFromPoint(r.Context(), h.cache, lat, lon, cellSize, query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := flightConeResponse{
		Rows:     grid.Rows(),
		Cols:     grid.Cols(),
		CellSize: grid.CellSize,
		LatMin:   grid.LatMin,
		LatMax:   grid.LatMax,
		LonMin:   grid.LonMin,
		LonMax:   grid.LonMax,
		Nodes:    make([]flightConeNode, 0, len(state.Explored)),
	}
	for ix, node := range state.Explored {
		nodeLat, nodeLon := grid.LatLon(ix.Row, ix.Col)
		var ref *[2]int
		if node.Ref != nil {
			ref = &[2]int{node.Ref.Row, node.Ref.Col}
		}
		resp.Nodes = append(resp.Nodes, flightConeNode{
			Index:     [2]int{ix.Row, ix.Col},
			Height:    node.Height,
			Distance:  node.Distance,
			Lat:       nodeLat,
			Lon:       nodeLon,
			Reference: ref,
			Size:      grid.CellSize,
			AGL:       node.Height - grid.At(ix.Row, ix.Col),
			GL:        node.EffectiveGlideRatio,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func queryFloat(r *http.Request, name string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(name), 64)
}

func queryFloatDefault(r *http.Request, name string, def float64) float64 {
	v, err := queryFloat(r, name)
	if err != nil {
		return def
	}
	return v
}
