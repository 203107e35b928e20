// Package api is the thin HTTP boundary exposing the reachability search as
// a web service. It is deliberately minimal: one handler, one JSON encode,
// no caching, no image rendering, no auth.
package api

import (
	"net/http"

	"glidecone/internal/metrics"
	"glidecone/pkg/config"
	"glidecone/pkg/terrain"
)

// NewServer wires the /flight_cone handler and the Prometheus scrape
// endpoint behind a Go 1.22+ method-pattern mux. searchDefaults supplies
// the search settings (glide ratio, clearance margin, concurrency cap);
// of these, only the glide ratio can be overridden by a query parameter.
func NewServer(cache *terrain.TileCache, searchDefaults config.SearchConfig) *http.Server {
	mux := http.NewServeMux()

	cone := NewFlightConeHandler(cache, searchDefaults)
	mux.HandleFunc("GET /flight_cone", metrics.Get().Middleware("/flight_cone", cone.Handle))
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return &http.Server{Handler: mux}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
