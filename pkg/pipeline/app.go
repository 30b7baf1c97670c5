package pipeline

import (
	"net/http"
	"sync"
)

// HandlerFunc is a middleware in (response, request, next) form. Calling
// next passes the request further down the chain; not calling it
// short-circuits the chain.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, next http.Handler)

// Middleware wraps the remainder of the chain.
type Middleware func(http.Handler) http.Handler

// App is the application object the custom server module and addons mount
// onto. Mount order is request order: the first mounted middleware sees the
// request first. Routes registered with Handle are served after every
// middleware has passed the request on.
//
// An App is built fresh for every server start and never reused.
type App struct {
	mu     sync.Mutex
	stack  []Middleware
	mux    *http.ServeMux
	routes int
}

// NewApp creates an empty application.
func NewApp() *App {
	return &App{mux: http.NewServeMux()}
}

// Use mounts mw at the end of the chain.
func (a *App) Use(mw Middleware) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stack = append(a.stack, mw)
}

// UseFunc mounts a (response, request, next) handler at the end of the chain.
func (a *App) UseFunc(h HandlerFunc) {
	a.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, next)
		})
	})
}

// Handle registers a route on the app's terminal router. Patterns follow
// http.ServeMux.
func (a *App) Handle(pattern string, handler http.Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mux.Handle(pattern, handler)
	a.routes++
}

// Len returns the number of mounted middleware.
func (a *App) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.stack)
}

// Handler composes the mounted middleware into one http.Handler. Requests
// that pass every middleware and match no route reach final; a nil final
// responds 404.
func (a *App) Handler(final http.Handler) http.Handler {
	if final == nil {
		final = http.NotFoundHandler()
	}

	a.mu.Lock()
	stack := make([]Middleware, len(a.stack))
	copy(stack, a.stack)
	routes := a.routes
	mux := a.mux
	a.mu.Unlock()

	terminal := final
	if routes > 0 {
		terminal = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, pattern := mux.Handler(r); pattern != "" {
				mux.ServeHTTP(w, r)
				return
			}
			final.ServeHTTP(w, r)
		})
	}

	h := terminal
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}
