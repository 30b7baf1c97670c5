package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:   "ephemeral port is valid",
			modify: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:      "port out of range",
			modify:    func(c *Config) { c.Server.Port = 65536 },
			wantField: "server.port",
		},
		{
			name:      "negative port",
			modify:    func(c *Config) { c.Server.Port = -1 },
			wantField: "server.port",
		},
		{
			name: "tls enabled without key",
			modify: func(c *Config) {
				c.TLS.Enabled = true
				c.TLS.KeyFile = ""
			},
			wantField: "tls.key_file",
		},
		{
			name: "tls disabled without paths",
			modify: func(c *Config) {
				c.TLS.KeyFile = ""
				c.TLS.CertFile = ""
			},
		},
		{
			name:      "unknown log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "unknown journal backend",
			modify:    func(c *Config) { c.Journal.Backend = "postgres" },
			wantField: "journal.backend",
		},
		{
			name:      "bad prune schedule",
			modify:    func(c *Config) { c.Journal.Retention.PruneSchedule = "every hour" },
			wantField: "journal.retention.prune_schedule",
		},
		{
			name: "bad prune schedule ignored when journal disabled",
			modify: func(c *Config) {
				c.Journal.Enabled = false
				c.Journal.Retention.PruneSchedule = "every hour"
			},
		},
		{
			name:      "addon without name",
			modify:    func(c *Config) { c.Addons = []AddonConfig{{Name: ""}} },
			wantField: "addons[0].name",
		},
		{
			name:      "metrics path without slash",
			modify:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
		{
			name:      "unknown tracing sampler",
			modify:    func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
			wantField: "telemetry.tracing.sampler",
		},
		{
			name:      "sample ratio above one",
			modify:    func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:   "sqlite3 journal backend",
			modify: func(c *Config) { c.Journal.Backend = "sqlite3" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() error = nil, want error for %s", tt.wantField)
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *ConfigurationError", err)
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error does not wrap ValidationError: %v", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want field %s", verr.Errors, tt.wantField)
			}
		})
	}
}

func TestConfigurationError_Error(t *testing.T) {
	cause := errors.New("boom")
	err := &ConfigurationError{Field: "tls.key_file", Message: "not found", Err: cause}

	if got := err.Error(); got != "tls.key_file: not found: boom" {
		t.Errorf("Error() = %q, want %q", got, "tls.key_file: not found: boom")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	bare := NewConfigurationError("", "module %q is invalid", "mock")
	if !strings.Contains(bare.Error(), `module "mock" is invalid`) {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "server.port", Message: "too big"}}}
	if got := single.Error(); got != "configuration validation failed: server.port: too big" {
		t.Errorf("Error() = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "x"},
		{Field: "b", Message: "y"},
	}}
	if !strings.Contains(multi.Error(), "2 errors") {
		t.Errorf("Error() = %q, want count", multi.Error())
	}
}
