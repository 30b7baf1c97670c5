package addons

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/devserver/pkg/pipeline"
)

// Logging writes one structured log line per completed request.
type Logging struct {
	logger *slog.Logger
}

func newLogging(_ map[string]any, deps Deps) (pipeline.Addon, error) {
	return &Logging{logger: deps.Logger.With("component", "http")}, nil
}

// Name implements pipeline.Addon.
func (l *Logging) Name() string { return "logging" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (l *Logging) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	hc.App.Use(LoggingMiddleware(l.logger))
	return nil
}

// LoggingMiddleware logs method, path, status, latency and request ID. 5xx
// responses log at error level, 4xx at warn.
func LoggingMiddleware(logger *slog.Logger) pipeline.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ctx := context.WithValue(r.Context(), StartTimeKey, startTime)
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r.WithContext(ctx))

			level := slog.LevelInfo
			if rw.statusCode >= 500 {
				level = slog.LevelError
			} else if rw.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(ctx, level, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", time.Since(startTime).Milliseconds(),
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}
