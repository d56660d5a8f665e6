package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/pkg/logger"
)

// TraceHeader carries the request trace id in both directions.
const TraceHeader = "X-Trace-Id"

// Trace attaches a trace id to the request context so every log line of
// the request can be correlated.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(TraceHeader); incoming != "" {
			ctx = logger.WithTraceID(ctx, incoming)
			c.Header(TraceHeader, incoming)
		} else {
			var traceID string
			ctx, traceID = logger.EnsureTraceID(ctx)
			c.Header(TraceHeader, traceID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLog logs a line per request with latency and status.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info(c.Request.Context(), "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}
