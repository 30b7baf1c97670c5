package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultHost              = ""
	DefaultPort              = 4200
	DefaultServerModuleRoot  = "server"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second

	// TLS defaults
	DefaultTLSKeyFile  = "ssl/server.key"
	DefaultTLSCertFile = "ssl/server.crt"

	// Watch defaults
	DefaultWatchEnabled     = true
	DefaultDebounceInterval = 100 * time.Millisecond
	DefaultSkipHidden       = true

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "text"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "devserver"
	DefaultMetricsPath      = "/_devserver/metrics"
	DefaultTracingSampler   = "always"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingService   = "devserver"
	DefaultTracingInsecure  = true
	DefaultTracingTimeout   = 10 * time.Second

	// Journal defaults
	DefaultJournalEnabled       = true
	DefaultJournalBackend       = "sqlite"
	DefaultJournalPath          = ".devserver/journal.db"
	DefaultJournalRetentionDays = 7
	DefaultJournalPruneSchedule = "0 * * * *"
)

// NewDefault returns a configuration populated entirely with defaults.
// Boolean switches that default to true are only set here; a YAML file
// that omits them keeps the value it was decoded onto.
func NewDefault() *Config {
	cfg := &Config{
		Watch: WatchConfig{
			Enabled:    DefaultWatchEnabled,
			SkipHidden: DefaultSkipHidden,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{Insecure: DefaultTracingInsecure},
		},
		Journal: JournalConfig{Enabled: DefaultJournalEnabled},
	}
	cfg.Server.Port = DefaultPort
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued field that has a default.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyTLSDefaults(&cfg.TLS)
	applyWatchDefaults(&cfg.Watch)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyJournalDefaults(&cfg.Journal)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ServerModuleRoot == "" {
		cfg.ServerModuleRoot = DefaultServerModuleRoot
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
}

func applyTLSDefaults(cfg *TLSConfig) {
	if cfg.KeyFile == "" {
		cfg.KeyFile = DefaultTLSKeyFile
	}
	if cfg.CertFile == "" {
		cfg.CertFile = DefaultTLSCertFile
	}
}

func applyWatchDefaults(cfg *WatchConfig) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
}

func applyJournalDefaults(cfg *JournalConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultJournalBackend
	}
	if cfg.Path == "" {
		cfg.Path = DefaultJournalPath
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = DefaultJournalRetentionDays
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultJournalPruneSchedule
	}
}
