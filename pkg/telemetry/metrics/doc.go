// Package metrics records development server lifecycle metrics with
// Prometheus.
//
// The collector uses its own registry so that restarting the server, or
// creating several collectors in tests, never collides with the global
// default registry.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRestart("success", 42*time.Millisecond)
//	http.Handle("/_devserver/metrics", collector.Handler())
package metrics
