package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/worknest/worknest/internal/telemetry"
)

// unmatchedRoute labels 404/405 requests so unknown paths do not create series.
const unmatchedRoute = "<no-route>"

// probeRoutes are polled by orchestrators every few seconds and would drown
// the API series.
var probeRoutes = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// MetricsMiddleware records http_requests_total{method, path, status} and
// http_request_duration_seconds{method, path} for every request.
//
// The path label is the matched route template from c.FullPath()
// (e.g. /api/v1/project/get/:projectId), never the raw URL.
//
// Register it after gin.Recovery() and RequestIDMiddleware so the status
// written by the recovery handler is the one recorded.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if probeRoutes[path] {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}

		method := c.Request.Method
		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
