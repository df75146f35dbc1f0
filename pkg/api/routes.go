// Package api exposes the geohash tools over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/geohash-zones/pkg/geocode"
	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/metrics"
	"github.com/1F47E/geohash-zones/pkg/overlay"
)

type Router struct {
	log          *logrus.Logger
	geocoder     *geocode.Resolver
	ws           http.Handler
	maxGridCells int
}

// NewRouter returns a router. A nil geocoder or ws handler leaves the
// matching route out.
func NewRouter(logger *logrus.Logger, geocoder *geocode.Resolver, ws http.Handler) *Router {
	return &Router{
		log:          logging.OrDiscard(logger),
		geocoder:     geocoder,
		ws:           ws,
		maxGridCells: overlay.DefaultMaxGridCells,
	}
}

// Setup registers every route on engine.
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(r.instrument())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/encode", r.Encode)
		v1.GET("/decode/:hash", r.Decode)
		v1.GET("/cell/:hash", r.Cell)
		v1.GET("/neighbors/:hash", r.Neighbors)
		v1.GET("/precision", r.Precision)
		v1.GET("/live", r.Live)
		v1.GET("/cover", r.Cover)
		if r.geocoder != nil {
			v1.GET("/geocode", r.Geocode)
		}
	}

	if r.ws != nil {
		engine.GET("/ws", gin.WrapH(r.ws))
	}
}

// New builds an engine with recovery and every route.
func New(logger *logrus.Logger, geocoder *geocode.Resolver, ws http.Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	NewRouter(logger, geocoder, ws).Setup(engine)
	return engine
}
