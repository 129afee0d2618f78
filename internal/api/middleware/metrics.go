package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
)

// Instrument returns middleware that records request counts and latency.
// The route template (not the raw path) is used as the handler label so
// /api/runs/1 and /api/runs/2 share a series.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}

		m.RecordHTTPRequest(
			handler,
			c.Request.Method,
			c.Writer.Status(),
			time.Since(start).Seconds(),
		)
	}
}
