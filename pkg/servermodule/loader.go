package servermodule

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/devserver/pkg/config"
	"mercator-hq/devserver/pkg/modcache"
	"mercator-hq/devserver/pkg/pipeline"
)

// IndexFile is the file name that marks a directory as a server module.
const IndexFile = "index.yaml"

// index is the decoded form of IndexFile.
type index struct {
	Type     string    `yaml:"type"`
	Name     string    `yaml:"name"`
	Settings yaml.Node `yaml:"settings"`
}

// Loader resolves server modules and implements pipeline.ModuleLoader.
type Loader struct {
	cache  *modcache.Cache
	logger *slog.Logger
}

// NewLoader creates a loader backed by cache. A nil cache uses the
// process-wide modcache.Default().
func NewLoader(cache *modcache.Cache, logger *slog.Logger) *Loader {
	if cache == nil {
		cache = modcache.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cache:  cache,
		logger: logger.With("component", "servermodule"),
	}
}

// Load returns the module under root, or (nil, nil) when root does not exist
// or holds no IndexFile. The built module is cached under root itself, so it
// is rebuilt only after the root is invalidated.
func (l *Loader) Load(root string) (*pipeline.Module, error) {
	dir := modcache.Resolve(root)

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat server module root: %w", err)
	}
	if !info.IsDir() {
		return nil, config.NewConfigurationError("server_module_root",
			"%q is not a directory", dir)
	}

	indexPath := filepath.Join(dir, IndexFile)
	if _, err := os.Stat(indexPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	v, err := l.cache.Load(dir, func() (any, error) {
		return l.build(dir, indexPath)
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Module), nil
}

func (l *Loader) build(dir, indexPath string) (*pipeline.Module, error) {
	data, err := l.readFile(indexPath)
	if err != nil {
		return nil, err
	}

	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, &config.ConfigurationError{
			Field:   "server_module_root",
			Message: fmt.Sprintf("invalid %s in %q", IndexFile, dir),
			Err:     err,
		}
	}
	if idx.Type == "" {
		return nil, config.NewConfigurationError("server_module_root",
			"%s in %q must declare a module type (one of: %s)",
			IndexFile, dir, strings.Join(Types(), ", "))
	}

	construct, ok := lookup(idx.Type)
	if !ok {
		return nil, config.NewConfigurationError("server_module_root",
			"unknown server module type %q in %q (registered: %s)",
			idx.Type, dir, strings.Join(Types(), ", "))
	}

	name := idx.Name
	if name == "" {
		name = idx.Type
	}

	lc := &LoadContext{
		Root:     dir,
		Name:     name,
		Settings: idx.Settings,
		Logger:   l.logger.With("module", name),
		readFile: func(rel string) ([]byte, error) {
			return l.readFile(resolveUnder(dir, rel))
		},
	}

	module, err := construct(lc)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, &config.ConfigurationError{
			Field:   "server_module_root",
			Message: fmt.Sprintf("server module %q could not be loaded", name),
			Err:     err,
		}
	}
	if module == nil {
		return nil, config.NewConfigurationError("server_module_root",
			"server module %q produced no module", name)
	}
	if module.Name == "" {
		module.Name = name
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}

	l.logger.Debug("server module loaded",
		"module", module.Name,
		"type", idx.Type,
		"kind", module.Kind.String(),
		"root", dir,
	)
	return module, nil
}

// readFile returns the contents of path, reading through the cache.
func (l *Loader) readFile(path string) ([]byte, error) {
	v, err := l.cache.Load(path, func() (any, error) {
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func resolveUnder(dir, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(dir, rel)
}
