package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/service"
)

// Metrics observes every request on the HTTP histogram. The route template
// is used as the path label so IDs do not explode label cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
