// Package telemetry groups the observability packages of the development
// server: structured logging (logging), Prometheus lifecycle metrics
// (metrics) and OpenTelemetry tracing (tracing).
package telemetry
