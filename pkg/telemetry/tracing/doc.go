// Package tracing sets up OpenTelemetry tracing for the development server.
//
// New builds a Tracer from config.TracingConfig. When tracing is disabled
// the tracer is a no-op; otherwise spans are batched to an OTLP gRPC
// collector and the tracer provider and W3C propagators are installed
// globally.
//
// The lifecycle manager records one span per restart cycle and the tracing
// addon records one server span per request, continuing any incoming
// traceparent:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	mgr := server.NewManager(server.ManagerConfig{Tracer: tracer.Tracer()})
//
// # Sampling
//
//   - always: every trace (default; development traffic is low)
//   - never: no trace
//   - ratio: sample_ratio of traces, by trace ID
//
// Every sampler is parent based, so a sampled incoming request keeps its
// sampling decision.
package tracing
