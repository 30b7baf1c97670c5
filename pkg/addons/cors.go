package addons

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"mercator-hq/devserver/pkg/pipeline"
)

// CORSConfig contains configuration for the cors addon.
type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins for CORS.
	// Use ["*"] to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight cache.
	MaxAge int `yaml:"max_age"`

	AllowCredentials bool `yaml:"allow_credentials"`
}

// DefaultCORSConfig returns a permissive configuration suited to local
// development.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         3600,
	}
}

// CORS answers preflight requests and adds CORS headers to every response.
type CORS struct {
	config *CORSConfig
}

func newCORS(settings map[string]any, _ Deps) (pipeline.Addon, error) {
	cfg := DefaultCORSConfig()
	if err := decodeSettings(settings, cfg); err != nil {
		return nil, err
	}
	return &CORS{config: cfg}, nil
}

// Name implements pipeline.Addon.
func (c *CORS) Name() string { return "cors" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (c *CORS) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	hc.App.Use(CORSMiddleware(c.config))
	return nil
}

// CORSMiddleware adds Cross-Origin Resource Sharing headers to responses and
// answers preflight OPTIONS requests with 204.
func CORSMiddleware(config *CORSConfig) pipeline.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && isOriginAllowed(origin, config.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

				if config.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if len(config.ExposedHeaders) > 0 {
					w.Header().Set("Access-Control-Expose-Headers", strings.Join(config.ExposedHeaders, ", "))
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if len(config.AllowedMethods) > 0 {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				}
				if len(config.AllowedHeaders) > 0 {
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				}
				if config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
}
