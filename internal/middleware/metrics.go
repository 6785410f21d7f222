package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/metrics"
)

// Metrics records request counts and latency per route. The route template
// (not the raw path) is the label, so ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
