package addons

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/devserver/pkg/pipeline"
	"mercator-hq/devserver/pkg/telemetry/tracing"
)

// Tracing records a server span per request. An incoming traceparent header
// is continued.
type Tracing struct {
	tracer trace.Tracer
}

func newTracing(_ map[string]any, deps Deps) (pipeline.Addon, error) {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracing.InstrumentationName)
	}
	return &Tracing{tracer: tracer}, nil
}

// Name implements pipeline.Addon.
func (t *Tracing) Name() string { return "tracing" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (t *Tracing) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	hc.App.Use(TracingMiddleware(t.tracer))
	return nil
}

// TracingMiddleware starts a span named "<METHOD> <path>" around next and
// marks it failed for 5xx responses.
func TracingMiddleware(tracer trace.Tracer) pipeline.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracing.Extract(r.Context(), r.Header)
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("client.address", r.RemoteAddr),
				),
			)
			defer span.End()

			if id := GetRequestID(r.Context()); id != "" {
				span.SetAttributes(attribute.String("devserver.request_id", id))
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.response.status_code", rw.statusCode))
			if rw.statusCode >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", rw.statusCode))
			}
		})
	}
}
