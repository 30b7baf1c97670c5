package addons

import (
	"context"
	"errors"
	"net/http"

	"mercator-hq/devserver/pkg/config"
	"mercator-hq/devserver/pkg/pipeline"
	"mercator-hq/devserver/pkg/telemetry/metrics"
)

// Metrics counts requests by status code and serves the Prometheus
// endpoint.
type Metrics struct {
	collector *metrics.Collector
	path      string
}

type metricsSettings struct {
	Path string `yaml:"path"`
}

func newMetrics(settings map[string]any, deps Deps) (pipeline.Addon, error) {
	if deps.Metrics == nil {
		return nil, errors.New("metrics addon requires telemetry.metrics.enabled")
	}

	s := metricsSettings{Path: deps.MetricsPath}
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	if s.Path == "" {
		s.Path = config.DefaultMetricsPath
	}

	return &Metrics{collector: deps.Metrics, path: s.Path}, nil
}

// Name implements pipeline.Addon.
func (m *Metrics) Name() string { return "metrics" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (m *Metrics) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	handler := m.collector.Handler()
	hc.App.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == m.path {
				handler.ServeHTTP(w, r)
				return
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			m.collector.RecordRequest(rw.statusCode)
		})
	})
	return nil
}
