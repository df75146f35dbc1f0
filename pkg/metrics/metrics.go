// Package metrics holds the Prometheus collectors of the explorer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ZoneDrawsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geohash_zone_draws_total",
		Help: "Zone rectangles dispatched to the map, by mode",
	}, []string{"mode"})
	ZoneSkipsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geohash_zone_skips_total",
		Help: "Reconciliation passes that did not redraw the zone, by reason",
	}, []string{"reason"})
	ZoneSupersededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geohash_zone_superseded_total",
		Help: "Pending zone draws replaced by a newer pass before dispatch",
	})
	OverlayClearsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geohash_overlay_clears_total",
		Help: "Overlay clear commands, by layer",
	}, []string{"layer"})
	GridDrawsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geohash_grid_draws_total",
		Help: "Full grid redraws",
	})
	GridCells = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geohash_grid_cells",
		Help:    "Number of cells drawn per grid redraw",
		Buckets: []float64{1, 4, 16, 64, 256, 1024, 2500},
	})
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geohash_geocode_requests_total",
		Help: "Address lookups per tier and result",
	}, []string{"source", "result"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geohash_geocode_duration_ms",
		Help:    "Address lookup duration in milliseconds, per tier",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"source"})
	PrefsErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geohash_prefs_errors_total",
		Help: "Preference load/save failures",
	}, []string{"op"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geohash_api_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
	APIDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geohash_api_request_duration_ms",
		Help:    "HTTP API request duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
	}, []string{"route"})
	MapSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geohash_map_sessions",
		Help: "Open websocket map sessions",
	})
	SlowClientsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geohash_slow_clients_total",
		Help: "Map sessions closed because the send buffer filled up",
	})
)

func init() {
	prometheus.MustRegister(ZoneDrawsTotal)
	prometheus.MustRegister(ZoneSkipsTotal)
	prometheus.MustRegister(ZoneSupersededTotal)
	prometheus.MustRegister(OverlayClearsTotal)
	prometheus.MustRegister(GridDrawsTotal)
	prometheus.MustRegister(GridCells)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(PrefsErrorsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIDurationMs)
	prometheus.MustRegister(MapSessions)
	prometheus.MustRegister(SlowClientsTotal)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
