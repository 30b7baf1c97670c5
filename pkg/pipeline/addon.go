package pipeline

import "context"

// Settings is the read-only view of the server options handed to modules and
// addon hooks.
type Settings struct {
	Host             string
	Port             int
	UseTLS           bool
	RootURL          string
	ServerModuleRoot string
}

// HookContext is passed to every addon middleware hook.
type HookContext struct {
	App      *App
	Settings Settings
}

// Addon is an external collaborator that may contribute middleware.
type Addon interface {
	Name() string
}

// MiddlewareHook is implemented by addons that contribute middleware. Hooks
// run one at a time in collection order and may assume exclusive access to
// the App during their turn.
type MiddlewareHook interface {
	ServerMiddleware(ctx context.Context, hc HookContext) error
}
