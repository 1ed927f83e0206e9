package middleware

import (
	"time"

	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware 按路由模板记录耗时，避免 playlist_id 造成标签膨胀
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
