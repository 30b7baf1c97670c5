package addons

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"mercator-hq/devserver/pkg/config"
	"mercator-hq/devserver/pkg/pipeline"
	"mercator-hq/devserver/pkg/telemetry/metrics"
)

// Deps are the shared collaborators addons may need.
type Deps struct {
	Logger *slog.Logger

	// Metrics is required by the metrics addon.
	Metrics *metrics.Collector

	// MetricsPath is where the metrics addon serves the exposition endpoint.
	MetricsPath string

	// Tracer is used by the tracing addon. Default: the global provider.
	Tracer trace.Tracer
}

type constructor func(settings map[string]any, deps Deps) (pipeline.Addon, error)

var constructors = map[string]constructor{
	"apikey":    newAPIKey,
	"cors":      newCORS,
	"logging":   newLogging,
	"metrics":   newMetrics,
	"nocache":   newNoCache,
	"requestid": newRequestID,
	"tracing":   newTracing,
}

// Names returns the built-in addon names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromConfig builds the configured addons in order. An unknown name or
// invalid settings yield a *config.ConfigurationError naming the entry.
func FromConfig(cfgs []config.AddonConfig, deps Deps) ([]pipeline.Addon, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	addons := make([]pipeline.Addon, 0, len(cfgs))
	for i, cfg := range cfgs {
		field := fmt.Sprintf("addons[%d]", i)

		construct, ok := constructors[cfg.Name]
		if !ok {
			return nil, config.NewConfigurationError(field,
				"unknown addon %q (available: %s)", cfg.Name, strings.Join(Names(), ", "))
		}

		addon, err := construct(cfg.Settings, deps)
		if err != nil {
			return nil, &config.ConfigurationError{
				Field:   field + ".settings",
				Message: fmt.Sprintf("invalid settings for addon %q", cfg.Name),
				Err:     err,
			}
		}
		addons = append(addons, addon)
	}
	return addons, nil
}

// decodeSettings converts a generic settings map into v by round-tripping
// through YAML, so addon settings use the same field names as the file.
func decodeSettings(settings map[string]any, v any) error {
	if len(settings) == 0 {
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}
