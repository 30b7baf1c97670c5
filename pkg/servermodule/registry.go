package servermodule

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"mercator-hq/devserver/pkg/pipeline"
)

// Constructor builds a module from its index.yaml declaration.
type Constructor func(lc *LoadContext) (*pipeline.Module, error)

// LoadContext is what a constructor gets to work with.
type LoadContext struct {
	// Root is the absolute module root directory.
	Root string

	// Name is the declared module name, or the type when none is given.
	Name string

	// Settings is the raw settings node from index.yaml.
	Settings yaml.Node

	Logger *slog.Logger

	readFile func(rel string) ([]byte, error)
}

// Decode decodes the module settings into v. Absent settings leave v
// untouched.
func (lc *LoadContext) Decode(v any) error {
	if lc.Settings.Kind == 0 {
		return nil
	}
	if err := lc.Settings.Decode(v); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}

// ReadFile reads a file relative to the module root through the module
// cache.
func (lc *LoadContext) ReadFile(rel string) ([]byte, error) {
	return lc.readFile(rel)
}

var (
	registryMu   sync.RWMutex
	constructors = map[string]Constructor{
		"mock":  newMock,
		"proxy": newProxy,
	}
)

// Register makes a module type available to index.yaml files. Registering
// the same type twice replaces the earlier constructor.
func Register(moduleType string, c Constructor) {
	if c == nil {
		panic("servermodule: Register constructor is nil")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	constructors[moduleType] = c
}

func lookup(moduleType string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := constructors[moduleType]
	return c, ok
}

// Types returns the registered module types in sorted order.
func Types() []string {
	registryMu.RLock()
	types := make([]string, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	registryMu.RUnlock()

	sort.Strings(types)
	return types
}
