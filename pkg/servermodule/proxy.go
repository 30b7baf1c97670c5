package servermodule

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"mercator-hq/devserver/pkg/pipeline"
	"mercator-hq/devserver/pkg/telemetry/tracing"
)

// ProxyRoute forwards every request under Prefix to Target.
type ProxyRoute struct {
	Prefix string `yaml:"prefix"`
	Target string `yaml:"target"`

	// StripPrefix removes Prefix from the path before forwarding.
	StripPrefix bool `yaml:"strip_prefix"`
}

type proxySettings struct {
	Routes []ProxyRoute `yaml:"routes"`
}

type proxyTarget struct {
	route  ProxyRoute
	target *url.URL
}

func newProxy(lc *LoadContext) (*pipeline.Module, error) {
	var s proxySettings
	if err := lc.Decode(&s); err != nil {
		return nil, err
	}

	targets := make([]proxyTarget, 0, len(s.Routes))
	for i, route := range s.Routes {
		if !strings.HasPrefix(route.Prefix, "/") {
			return nil, fmt.Errorf("routes[%d]: prefix %q must start with /", i, route.Prefix)
		}
		u, err := url.Parse(route.Target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("routes[%d]: target %q must be an absolute URL", i, route.Target)
		}
		targets = append(targets, proxyTarget{route: route, target: u})
	}

	logger := lc.Logger
	return pipeline.Factory(lc.Name, func(ctx context.Context, app *pipeline.App, settings pipeline.Settings) error {
		for _, t := range targets {
			rp := &httputil.ReverseProxy{
				Rewrite: func(pr *httputil.ProxyRequest) {
					pr.SetURL(t.target)
					pr.SetXForwarded()
					tracing.Inject(pr.In.Context(), pr.Out.Header)
				},
				ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
					logger.WarnContext(r.Context(), "proxy request failed",
						"prefix", t.route.Prefix,
						"target", t.target.String(),
						"path", r.URL.Path,
						"error", err,
					)
					http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
				},
			}

			var h http.Handler = rp
			if t.route.StripPrefix {
				h = http.StripPrefix(strings.TrimSuffix(t.route.Prefix, "/"), rp)
			}
			prefix := t.route.Prefix
			app.UseFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
				if !matchPrefix(prefix, r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				h.ServeHTTP(w, r)
			})

			logger.Debug("proxy mounted",
				"prefix", t.route.Prefix,
				"target", t.target.String(),
				"tls", settings.UseTLS,
			)
		}
		return nil
	}), nil
}

// matchPrefix reports whether path falls under prefix on a segment
// boundary. "/api" and "/api/" both match "/api" and "/api/x", never "/apix".
func matchPrefix(prefix, path string) bool {
	base := strings.TrimSuffix(prefix, "/")
	if base == "" {
		return true
	}
	return path == base || strings.HasPrefix(path, base+"/")
}
