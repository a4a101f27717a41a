package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
)

const (
	TraceIDHeader = "X-Trace-ID"
	traceIDKey    = "trace_id"
)

// TraceID tags the request with a trace id, reusing the caller's when sent.
// The id is also stored on the request context so runs triggered by the
// request log and publish under it.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))

		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(traceIDKey); exists {
		return traceID.(string)
	}
	return ""
}
