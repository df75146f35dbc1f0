package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/1F47E/geohash-zones/pkg/logging"
	"github.com/1F47E/geohash-zones/pkg/metrics"
)

// instrument logs every request and records its route metrics.
func (r *Router) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.APIDurationMs.WithLabelValues(route).Observe(float64(elapsed.Microseconds()) / 1000)

		r.log.WithFields(logging.Fields{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"duration": elapsed.String(),
		}).Debug("Request served")
	}
}
