package addons

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"mercator-hq/devserver/pkg/pipeline"
)

// APIKey is one accepted key.
type APIKey struct {
	// Key is the literal key. KeyEnv names an environment variable holding
	// it instead.
	Key    string `yaml:"key"`
	KeyEnv string `yaml:"key_env"`

	// Name identifies the caller in logs.
	Name     string `yaml:"name"`
	Disabled bool   `yaml:"disabled"`
}

// APIKeySource is where a key is read from.
type APIKeySource struct {
	Type   string `yaml:"type"`   // header or query
	Name   string `yaml:"name"`   // header name or query parameter
	Scheme string `yaml:"scheme"` // optional prefix such as "Bearer"
}

// APIKeyConfig contains configuration for the apikey addon.
type APIKeyConfig struct {
	Keys    []APIKey       `yaml:"keys"`
	Sources []APIKeySource `yaml:"sources"`

	// SkipPaths are path prefixes served without a key.
	SkipPaths []string `yaml:"skip_paths"`
}

// DefaultAPIKeySources reads "Authorization: Bearer <key>", then
// "X-API-Key".
func DefaultAPIKeySources() []APIKeySource {
	return []APIKeySource{
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		{Type: "header", Name: "X-API-Key"},
	}
}

// APIKeyGate rejects requests that carry no valid API key with 401. It
// keeps a dev server that binds a shared interface private.
type APIKeyGate struct {
	keys      []APIKey
	sources   []APIKeySource
	skipPaths []string
	logger    *slog.Logger
}

func newAPIKey(settings map[string]any, deps Deps) (pipeline.Addon, error) {
	var cfg APIKeyConfig
	if err := decodeSettings(settings, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultAPIKeySources()
	}

	var keys []APIKey
	for i, k := range cfg.Keys {
		if k.KeyEnv != "" {
			k.Key = os.Getenv(k.KeyEnv)
			if k.Key == "" {
				return nil, fmt.Errorf("keys[%d]: environment variable %s is empty", i, k.KeyEnv)
			}
		}
		if k.Key == "" {
			return nil, fmt.Errorf("keys[%d]: key or key_env is required", i)
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, errors.New("at least one key is required")
	}

	for i, s := range cfg.Sources {
		if s.Type != "header" && s.Type != "query" {
			return nil, fmt.Errorf("sources[%d]: type must be header or query, got %q", i, s.Type)
		}
	}

	return &APIKeyGate{
		keys:      keys,
		sources:   cfg.Sources,
		skipPaths: cfg.SkipPaths,
		logger:    deps.Logger.With("component", "apikey"),
	}, nil
}

// Name implements pipeline.Addon.
func (g *APIKeyGate) Name() string { return "apikey" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (g *APIKeyGate) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	hc.App.Use(g.middleware)
	return nil
}

func (g *APIKeyGate) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range g.skipPaths {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		presented, ok := g.extract(r)
		if !ok {
			g.logger.Warn("missing API key", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			http.Error(w, "Missing or invalid API key", http.StatusUnauthorized)
			return
		}

		key, ok := g.match(presented)
		if !ok {
			g.logger.Warn("invalid API key", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		g.logger.Debug("API key authenticated", "name", key.Name, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (g *APIKeyGate) extract(r *http.Request) (string, bool) {
	for _, source := range g.sources {
		var value string
		switch source.Type {
		case "header":
			value = r.Header.Get(source.Name)
			if source.Scheme != "" {
				prefix := source.Scheme + " "
				if !strings.HasPrefix(value, prefix) {
					continue
				}
				value = strings.TrimPrefix(value, prefix)
			}
		case "query":
			value = r.URL.Query().Get(source.Name)
		}
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// match compares against every key in constant time.
func (g *APIKeyGate) match(presented string) (APIKey, bool) {
	var (
		found APIKey
		ok    bool
	)
	for _, k := range g.keys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(presented)) == 1 && !k.Disabled {
			found, ok = k, true
		}
	}
	return found, ok
}
