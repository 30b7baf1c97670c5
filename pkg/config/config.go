package config

import "time"

// Config is the root configuration structure for the development server.
// It contains every section the serve command needs: the HTTP server itself,
// TLS material, the file watcher, addons, telemetry and the lifecycle journal.
type Config struct {
	// Server contains the bind address and URL settings for the served app.
	Server ServerConfig `yaml:"server"`

	// TLS contains the certificate/key pair used when serving HTTPS.
	TLS TLSConfig `yaml:"tls"`

	// Watch controls which files trigger a server restart.
	Watch WatchConfig `yaml:"watch"`

	// Addons lists the addon middleware in mount order.
	Addons []AddonConfig `yaml:"addons" validate:"dive"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Journal contains configuration for the lifecycle event history.
	Journal JournalConfig `yaml:"journal"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// Host is the interface to bind. Empty binds every interface and is
	// displayed as "localhost" in the status line.
	Host string `yaml:"host" validate:"omitempty,hostname_rfc1123|ip"`

	// Port is the TCP port to bind. Zero picks an ephemeral port.
	// Default: 4200
	Port int `yaml:"port" validate:"gte=0,lte=65535"`

	// RootURL is the path prefix the app is served under. It takes precedence
	// over BaseURL when both are set.
	RootURL string `yaml:"root_url"`

	// BaseURL is the legacy name for RootURL.
	BaseURL string `yaml:"base_url"`

	// ServerModuleRoot is the directory holding the custom server module
	// (index.yaml plus the files it references). Optional.
	// Default: "./server"
	ServerModuleRoot string `yaml:"server_module_root"`

	// ReadHeaderTimeout bounds how long reading request headers may take.
	// Default: 10s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gte=0"`
}

// TLSConfig contains the TLS key pair paths.
type TLSConfig struct {
	// Enabled switches the server to HTTPS.
	Enabled bool `yaml:"enabled"`

	// KeyFile is the PEM encoded private key.
	// Default: "ssl/server.key"
	KeyFile string `yaml:"key_file" validate:"required_if=Enabled true"`

	// CertFile is the PEM encoded certificate chain.
	// Default: "ssl/server.crt"
	CertFile string `yaml:"cert_file" validate:"required_if=Enabled true"`
}

// WatchConfig contains configuration for the file watcher.
type WatchConfig struct {
	// Enabled turns restart-on-change on or off.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Paths are the files or directories to watch. When empty the server
	// module root is watched.
	Paths []string `yaml:"paths"`

	// DebounceInterval is the quiet window after the last change before a
	// restart is triggered.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval" validate:"gte=0"`

	// Extensions restricts which files are considered. Empty matches all.
	Extensions []string `yaml:"extensions"`

	// SkipHidden ignores dot files and dot directories.
	// Default: true
	SkipHidden bool `yaml:"skip_hidden"`
}

// AddonConfig selects one built-in addon.
type AddonConfig struct {
	// Name is the registered addon name (e.g. "logging", "cors").
	Name string `yaml:"name" validate:"required"`

	// Settings holds addon specific options.
	Settings map[string]any `yaml:"settings"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Default: "info"
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is the log output format.
	// Default: "text"
	Format string `yaml:"format" validate:"omitempty,oneof=json text console"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether lifecycle metrics are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "devserver"
	Namespace string `yaml:"namespace"`

	// Path is where the metrics addon mounts the scrape endpoint.
	// Default: "/_devserver/metrics"
	Path string `yaml:"path" validate:"omitempty,startswith=/"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Restart
// cycles and, with the tracing addon, requests are recorded as spans.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is the sampling strategy: "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler" validate:"omitempty,oneof=always never ratio"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" validate:"required_if=Enabled true"`

	// ServiceName is the service.name resource attribute.
	// Default: "devserver"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS towards the collector.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// JournalConfig contains configuration for the lifecycle journal.
type JournalConfig struct {
	// Enabled controls whether lifecycle events are persisted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "sqlite" (pure Go driver),
	// "sqlite3" (cgo driver) or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend" validate:"omitempty,oneof=sqlite sqlite3 memory"`

	// Path is the SQLite database file.
	// Default: ".devserver/journal.db"
	Path string `yaml:"path"`

	// Retention controls pruning of old entries.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains journal retention configuration.
type RetentionConfig struct {
	// Days is how long entries are kept.
	// Default: 7
	Days int `yaml:"days" validate:"gte=0"`

	// PruneSchedule is a standard cron expression.
	// Default: "0 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}
