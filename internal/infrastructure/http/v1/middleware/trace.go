package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appctx "resido/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"

	KeyRequestID = "request_id"
	KeyTraceID   = "trace_id"
)

var tracer = otel.Tracer("resido/http")

// Trace opens a server span and puts correlation ids into the request context.
// When no tracer provider is installed the trace id is a random UUID.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.target", c.Request.URL.Path),
			),
		)
		defer span.End()

		tc := appctx.NewTraceContext(c.GetHeader(HeaderRequestID))
		if sc := span.SpanContext(); sc.HasTraceID() {
			tc.TraceID = sc.TraceID().String()
		} else if inbound := c.GetHeader(HeaderTraceID); inbound != "" {
			tc.TraceID = inbound
		}

		c.Request = c.Request.WithContext(appctx.WithTrace(ctx, tc))
		c.Set(KeyTraceID, tc.TraceID)
		c.Set(KeyRequestID, tc.RequestID)
		c.Header(HeaderRequestID, tc.RequestID)
		c.Header(HeaderTraceID, tc.TraceID)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
