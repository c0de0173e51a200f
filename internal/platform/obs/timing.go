package obs

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Time logs the duration of an operation and its error, if any. Use it as
// defer obs.Time(ctx, "op")(&err).
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s trace_id=%s op=%s dur=%dms err=%v", reqID, traceID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s trace_id=%s op=%s dur=%dms", reqID, traceID, name, dur.Milliseconds())
	}
}
