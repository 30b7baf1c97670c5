package addons

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/devserver/pkg/pipeline"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID, reusing one supplied by the client.
type RequestID struct{}

func newRequestID(map[string]any, Deps) (pipeline.Addon, error) {
	return RequestID{}, nil
}

// Name implements pipeline.Addon.
func (RequestID) Name() string { return "requestid" }

// ServerMiddleware implements pipeline.MiddlewareHook.
func (RequestID) ServerMiddleware(_ context.Context, hc pipeline.HookContext) error {
	hc.App.Use(RequestIDMiddleware)
	return nil
}

// RequestIDMiddleware stores the request ID in the context and echoes it in
// the X-Request-ID response header. New IDs are random UUIDs.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
