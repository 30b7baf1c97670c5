package reload

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/devserver/pkg/watch"
)

// RestartFunc performs one full restart cycle. It must report its own
// failures; the scheduler has nothing to propagate them to.
type RestartFunc func(ctx context.Context)

// Config configures a Scheduler.
type Config struct {
	// Debounce is the quiet window for Notify.
	// Default: 100ms
	Debounce time.Duration

	// OnQueueChange, if set, is called with the number of requests waiting
	// behind the in-flight restart whenever it changes.
	OnQueueChange func(queued int)
}

// Scheduler serializes restart requests and debounces change notifications
// into restart requests.
//
// Serialization is a chain of tokens: each request takes the previous
// request's done channel, waits for it to close, runs, and closes its own.
// Waiting order is therefore arrival order.
type Scheduler struct {
	restart  RestartFunc
	debounce *Debouncer
	config   Config
	logger   *slog.Logger

	mu      sync.Mutex
	tail    chan struct{}
	queued  int
	stopped bool
}

// NewScheduler creates a scheduler that runs restart for every request.
func NewScheduler(restart RestartFunc, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		restart:  restart,
		debounce: NewDebouncer(cfg.Debounce),
		config:   cfg,
		logger:   logger.With("component", "reload"),
	}
}

// Notify records a change notification. After the debounce window passes
// with no further notifications, exactly one restart is requested.
func (s *Scheduler) Notify(ev watch.Event) {
	s.logger.Debug("change notification",
		"op", string(ev.Op),
		"path", ev.Path,
	)
	s.debounce.Trigger(func() {
		s.logger.Info("restarting after file change",
			"op", string(ev.Op),
			"path", ev.Path,
		)
		s.Restart(context.Background())
	})
}

// Restart runs one restart cycle after every earlier request has finished,
// and returns when the cycle completes. It never fails: cycle failures are
// the RestartFunc's to report. Cancelling ctx does not abandon the request;
// the cycle runs with a context that is never cancelled. Requests made after
// Stop are dropped.
func (s *Scheduler) Restart(ctx context.Context) {
	done := make(chan struct{})

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("restart dropped, scheduler stopped")
		return
	}
	prev := s.tail
	s.tail = done
	if prev != nil {
		s.queued++
		s.reportQueued()
	}
	s.mu.Unlock()

	if prev != nil {
		<-prev
		s.mu.Lock()
		s.queued--
		s.reportQueued()
		s.mu.Unlock()
	}

	defer func() {
		s.mu.Lock()
		if s.tail == done {
			s.tail = nil
		}
		s.mu.Unlock()
		close(done)
	}()

	s.restart(context.WithoutCancel(ctx))
}

// Queued returns the number of requests waiting behind the in-flight one.
func (s *Scheduler) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// Pending reports whether a debounced restart is waiting to fire.
func (s *Scheduler) Pending() bool {
	return s.debounce.Pending()
}

// Stop cancels any pending debounced restart and drops further
// notifications and restart requests. Restart requests already made still
// run; Wait covers them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.debounce.Stop()
}

// Wait blocks until every restart requested so far has completed or ctx is
// done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	tail := s.tail
	s.mu.Unlock()

	if tail == nil {
		return nil
	}
	select {
	case <-tail:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reportQueued must be called with s.mu held.
func (s *Scheduler) reportQueued() {
	if s.config.OnQueueChange != nil {
		s.config.OnQueueChange(s.queued)
	}
}
