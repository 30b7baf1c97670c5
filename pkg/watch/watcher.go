package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Config contains configuration for the file watcher.
type Config struct {
	// Paths are the files or directories to watch. Directories are watched
	// recursively.
	Paths []string

	// Extensions restricts events to these file extensions (e.g. ".yaml").
	// Empty means every file.
	Extensions []string

	// SkipHidden ignores files and directories whose name starts with ".".
	SkipHidden bool
}

// Watcher watches paths for changes and forwards them to a Sink.
type Watcher struct {
	watcher *fsnotify.Watcher
	config  Config
	logger  *slog.Logger

	// OnEvent, if set, observes every forwarded event.
	OnEvent func(Event)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	closed  bool
}

// New creates a watcher. Paths are added when Watch starts.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: w,
		config:  cfg,
		logger:  logger.With("component", "watch"),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Watch forwards change notifications to sink until ctx is cancelled or
// Stop is called. Paths that do not exist are skipped with a warning.
func (w *Watcher) Watch(ctx context.Context, sink Sink) error {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)

	watched := 0
	for _, p := range w.config.Paths {
		err := w.addPath(p)
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("watch path does not exist", "path", p)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to watch path %q: %w", p, err)
		}
		watched++
	}

	w.logger.Info("file watcher started",
		"paths", w.config.Paths,
		"watched", watched,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("file watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Debug("file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.handle(event, sink)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, sink Sink) {
	op, ok := translate(event.Op)
	if !ok {
		return
	}

	// New directories are watched so files created inside them are seen.
	if op == OpAdd {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.hidden(event.Name) {
				if err := w.addDirectory(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if !w.shouldProcess(event.Name) {
		return
	}

	ev := Event{Op: op, Path: event.Name}
	w.logger.Debug("file event detected", "path", ev.Path, "op", string(ev.Op))

	if w.OnEvent != nil {
		w.OnEvent(ev)
	}
	sink.Notify(ev)
}

// Stop stops the watcher and releases the fsnotify handle. It is safe to
// call more than once and before Watch.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	running := w.running
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// translate maps fsnotify ops onto notification kinds. Chmod-only events
// are dropped.
func translate(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpAdd, true
	case op.Has(fsnotify.Write):
		return OpChange, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpDelete, true
	default:
		return "", false
	}
}

func (w *Watcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return w.addDirectory(path)
	}
	return w.watcher.Add(path)
}

// addDirectory adds a directory and all subdirectories to the watcher.
func (w *Watcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.hidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

func (w *Watcher) hidden(path string) bool {
	return w.config.SkipHidden && strings.HasPrefix(filepath.Base(path), ".")
}

func (w *Watcher) shouldProcess(path string) bool {
	if w.hidden(path) {
		return false
	}
	if len(w.config.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(w.config.Extensions, func(valid string) bool {
		return strings.ToLower(valid) == ext
	})
}
