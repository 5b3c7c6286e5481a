package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retail-pos-engine/internal/platform/metrics"
)

// unmatchedRoute labels requests gin could not route
const unmatchedRoute = "unmatched"

// routeOf returns the route template, never the raw path
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

// Metrics records request count and latency by route template
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.HTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}
