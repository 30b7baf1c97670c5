package addons

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTracing(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer provider.Shutdown(context.Background())

	addon, err := newTracing(nil, Deps{Tracer: provider.Tracer("test")})
	if err != nil {
		t.Fatalf("newTracing() error = %v", err)
	}

	var seen trace.SpanContext
	h := mount(t, addon, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.SpanContextFromContext(r.Context())
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))

	tests := []struct {
		name        string
		path        string
		traceparent string
		wantTraceID string
		wantStatus  codes.Code
	}{
		{name: "new trace", path: "/app/", wantStatus: codes.Unset},
		{
			name:        "continues incoming trace",
			path:        "/app/",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			wantTraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
			wantStatus:  codes.Unset,
		},
		{name: "server error", path: "/fail", wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.traceparent != "" {
				req.Header.Set("traceparent", tt.traceparent)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("spans = %d, want 1", len(spans))
			}
			span := spans[0]
			if span.Name != "GET "+tt.path {
				t.Errorf("Name = %q, want %q", span.Name, "GET "+tt.path)
			}
			if span.SpanKind != trace.SpanKindServer {
				t.Errorf("SpanKind = %v, want server", span.SpanKind)
			}
			if span.Status.Code != tt.wantStatus {
				t.Errorf("Status = %v, want %v", span.Status.Code, tt.wantStatus)
			}
			if tt.wantTraceID != "" && span.SpanContext.TraceID().String() != tt.wantTraceID {
				t.Errorf("TraceID = %s, want %s", span.SpanContext.TraceID(), tt.wantTraceID)
			}
			if seen.SpanID() != span.SpanContext.SpanID() {
				t.Errorf("handler span = %s, want %s", seen.SpanID(), span.SpanContext.SpanID())
			}
		})
	}
}
