package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
	"github.com/OldStager01/throughput-autoscaler/internal/metrics"
)

// RequestLogger logs every request and, when m is set, records it in the
// request metrics. Successful health and scrape requests are not logged.
func RequestLogger(m *metrics.Metrics, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		if m != nil {
			m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, latency)
		}
		if quiet[path] && status < 400 {
			return
		}

		fields := map[string]interface{}{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"latency_ms": latency.Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if query != "" {
			fields["query"] = query
		}
		if traceID := GetTraceID(c); traceID != "" {
			fields["trace_id"] = traceID
		}
		if username := GetUsername(c); username != "" {
			fields["username"] = username
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)

		switch {
		case status >= 500:
			entry.Error("server error")
		case status >= 400:
			entry.Warn("client error")
		default:
			entry.Debug("request completed")
		}
	}
}
