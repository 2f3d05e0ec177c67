package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/id"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace assigns request and trace ids. An active otel span supplies the
// trace id; otherwise the X-Trace-ID header or a fresh id is used.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = id.New().String()
		}

		traceID := c.GetHeader(HeaderTraceID)
		spanID := ""
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			traceID = sc.TraceID().String()
			spanID = sc.SpanID().String()
		}
		if traceID == "" {
			traceID = id.New().String()
		}

		ctx := appctx.WithTrace(c.Request.Context(), appctx.Trace{
			TraceID:   traceID,
			SpanID:    spanID,
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
