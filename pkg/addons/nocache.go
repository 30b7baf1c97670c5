package addons

import (
	"context"
	"net/http"

	"mercator-hq/devserver/pkg/pipeline"
)

// NoCache marks every response as non-cacheable so browsers always fetch
// the latest build.
type NoCache struct{}

func newNoCache(map[string]any, Deps) (pipeline.Addon, error) {
	return NoCache{}, nil
}

// Name implements pipeline.Addon.
func (NoCache) Name() string { return "nocache" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (NoCache) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	hc.App.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			next.ServeHTTP(w, r)
		})
	})
	return nil
}
