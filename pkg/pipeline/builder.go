package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"mercator-hq/devserver/pkg/config"
)

// Builder assembles the request pipeline in two fixed phases:
//
//  1. the optional custom server module found under Settings.ServerModuleRoot
//  2. every addon implementing MiddlewareHook, in collection order
//
// The custom module is mounted first so user-authored mocks and proxies see
// requests before generic addon middleware.
type Builder struct {
	loader ModuleLoader
	addons []Addon
	logger *slog.Logger
}

// NewBuilder creates a builder. loader may be nil when custom server modules
// are not supported.
func NewBuilder(loader ModuleLoader, addons []Addon, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		loader: loader,
		addons: addons,
		logger: logger.With("component", "pipeline"),
	}
}

// Build returns a new App with the custom server module and every addon
// middleware mounted.
//
// A module of invalid shape yields a *config.ConfigurationError. A failing
// factory or addon hook yields a *MiddlewareBuildError and stops the build;
// remaining addons are not invoked.
func (b *Builder) Build(ctx context.Context, settings Settings) (*App, error) {
	app := NewApp()

	if err := b.mountServerModule(ctx, app, settings); err != nil {
		return nil, err
	}

	for _, addon := range b.addons {
		hook, ok := addon.(MiddlewareHook)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source := "addon " + addon.Name()
		before := app.Len()
		if err := invoke(source, func() error {
			return hook.ServerMiddleware(ctx, HookContext{App: app, Settings: settings})
		}); err != nil {
			return nil, err
		}

		b.logger.Debug("addon middleware mounted",
			"addon", addon.Name(),
			"middleware", app.Len()-before,
		)
	}

	return app, nil
}

func (b *Builder) mountServerModule(ctx context.Context, app *App, settings Settings) error {
	if b.loader == nil || settings.ServerModuleRoot == "" {
		return nil
	}

	module, err := b.loader.Load(settings.ServerModuleRoot)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			return err
		}
		return &MiddlewareBuildError{Source: "server module", Err: err}
	}
	if module == nil {
		return nil
	}

	if err := module.Validate(); err != nil {
		return err
	}

	switch module.Kind {
	case KindDirectHandler:
		app.UseFunc(module.Handler)
	case KindFactory:
		if err := invoke("server module "+module.Name, func() error {
			return module.Factory(ctx, app, settings)
		}); err != nil {
			return err
		}
	}

	b.logger.Debug("custom server module mounted",
		"module", module.Name,
		"kind", module.Kind.String(),
		"root", settings.ServerModuleRoot,
	)
	return nil
}

// invoke runs fn and converts both its error and any panic into a
// MiddlewareBuildError for source.
func invoke(source string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MiddlewareBuildError{
				Source: source,
				Err:    fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
		}
	}()

	if err := fn(); err != nil {
		return &MiddlewareBuildError{Source: source, Err: err}
	}
	return nil
}
