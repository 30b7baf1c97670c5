package pipeline

import (
	"context"
	"fmt"

	"mercator-hq/devserver/pkg/config"
)

// ModuleKind tells how a custom server module is mounted.
type ModuleKind int

const (
	// KindDirectHandler modules are mounted into the chain as a HandlerFunc.
	KindDirectHandler ModuleKind = iota + 1

	// KindFactory modules are invoked with the app and mount themselves.
	KindFactory
)

func (k ModuleKind) String() string {
	switch k {
	case KindDirectHandler:
		return "direct-handler"
	case KindFactory:
		return "factory"
	default:
		return fmt.Sprintf("ModuleKind(%d)", int(k))
	}
}

// FactoryFunc mounts a module's behavior onto app.
type FactoryFunc func(ctx context.Context, app *App, settings Settings) error

// Module is the custom server module: exactly one of Handler or Factory,
// selected by Kind.
type Module struct {
	// Name identifies the module in errors and logs.
	Name string

	Kind    ModuleKind
	Handler HandlerFunc
	Factory FactoryFunc
}

// DirectHandler returns a module mounted directly into the chain.
func DirectHandler(name string, h HandlerFunc) *Module {
	return &Module{Name: name, Kind: KindDirectHandler, Handler: h}
}

// Factory returns a module that mounts itself when invoked.
func Factory(name string, f FactoryFunc) *Module {
	return &Module{Name: name, Kind: KindFactory, Factory: f}
}

// Validate reports a *config.ConfigurationError when the module is neither a
// direct handler nor a factory.
func (m *Module) Validate() error {
	switch {
	case m.Kind == KindDirectHandler && m.Handler != nil:
		return nil
	case m.Kind == KindFactory && m.Factory != nil:
		return nil
	}
	return config.NewConfigurationError("server_module_root",
		"custom server module %q must be a direct handler (w, r, next) or a factory (app, options), got %s",
		m.Name, m.Kind)
}

// ModuleLoader resolves the custom server module under a root directory.
// It returns (nil, nil) when the root holds no module.
type ModuleLoader interface {
	Load(root string) (*Module, error)
}
