package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docvault/pkg/metrics"
)

// PrometheusMiddleware 记录请求计数与耗时.
// endpoint 用路由模板而非原始路径，避免 :id 之类的参数打爆标签基数.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.RequestCounter.WithLabelValues(method, endpoint).Inc()
		metrics.RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}
