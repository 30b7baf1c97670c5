package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/devserver/pkg/config"
)

// Server states as exported by the server_state gauge.
var stateValues = map[string]float64{
	"stopped":   0,
	"starting":  1,
	"listening": 2,
	"stopping":  3,
}

// Collector records server lifecycle metrics on a private Prometheus registry.
//
// Metrics:
//   - devserver_restarts_total: Completed restart cycles by result
//   - devserver_restart_duration_seconds: Duration of restart cycles
//   - devserver_restarts_queued: Restart requests waiting behind an in-flight cycle
//   - devserver_server_state: Current lifecycle state (0=stopped 1=starting 2=listening 3=stopping)
//   - devserver_open_connections: Connections tracked by the connection registry
//   - devserver_forced_closes_total: Connections force-closed during stop
//   - devserver_watch_events_total: File change notifications by op
//   - devserver_requests_total: Requests served through the pipeline by status code
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	restartsTotal   *prometheus.CounterVec
	restartDuration prometheus.Histogram
	restartsQueued  prometheus.Gauge
	serverState     prometheus.Gauge
	openConns       prometheus.Gauge
	forcedCloses    prometheus.Counter
	watchEvents     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
}

// NewCollector creates a collector and registers every metric with registry.
// If registry is nil a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		restartsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "restarts_total",
				Help:      "Total number of completed restart cycles",
			},
			[]string{"result"},
		),
		restartDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "restart_duration_seconds",
				Help:      "Duration of restart cycles in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		restartsQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "restarts_queued",
				Help:      "Restart requests waiting for the in-flight cycle",
			},
		),
		serverState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "server_state",
				Help:      "Current server state (0=stopped, 1=starting, 2=listening, 3=stopping)",
			},
		),
		openConns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "open_connections",
				Help:      "Connections currently tracked by the active server",
			},
		),
		forcedCloses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "forced_closes_total",
				Help:      "Connections forcibly closed while stopping the server",
			},
		),
		watchEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "watch_events_total",
				Help:      "File change notifications received",
			},
			[]string{"op"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Requests served through the middleware pipeline",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		c.restartsTotal,
		c.restartDuration,
		c.restartsQueued,
		c.serverState,
		c.openConns,
		c.forcedCloses,
		c.watchEvents,
		c.requestsTotal,
	)

	return c
}

// Registry returns the registry the collector registered its metrics with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRestart records a finished restart cycle. result is "success" or "failure".
func (c *Collector) RecordRestart(result string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.restartsTotal.WithLabelValues(result).Inc()
	c.restartDuration.Observe(duration.Seconds())
}

// SetQueuedRestarts sets the number of restart requests waiting to execute.
func (c *Collector) SetQueuedRestarts(n int) {
	if !c.config.Enabled {
		return
	}
	c.restartsQueued.Set(float64(n))
}

// SetState records the current lifecycle state by name.
func (c *Collector) SetState(state string) {
	if !c.config.Enabled {
		return
	}
	if v, ok := stateValues[state]; ok {
		c.serverState.Set(v)
	}
}

// SetOpenConnections records the connection registry size.
func (c *Collector) SetOpenConnections(n int) {
	if !c.config.Enabled {
		return
	}
	c.openConns.Set(float64(n))
}

// AddForcedCloses counts connections destroyed during stop.
func (c *Collector) AddForcedCloses(n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.forcedCloses.Add(float64(n))
}

// RecordWatchEvent counts a file change notification.
func (c *Collector) RecordWatchEvent(op string) {
	if !c.config.Enabled {
		return
	}
	c.watchEvents.WithLabelValues(op).Inc()
}

// RecordRequest counts a served request by status code.
func (c *Collector) RecordRequest(code int) {
	if !c.config.Enabled {
		return
	}
	c.requestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}
