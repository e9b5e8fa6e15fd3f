package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Iamvinnie254/freshharvest-api/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveRequest(path, c.Writer.Status(), float64(time.Since(start).Milliseconds()))
	}
}
