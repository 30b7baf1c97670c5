package reload

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/devserver/pkg/telemetry/logging"
	"mercator-hq/devserver/pkg/watch"
)

// recorder is a RestartFunc that tracks how many cycles ran and the maximum
// number that ever overlapped.
type recorder struct {
	running atomic.Int32
	maxSeen atomic.Int32
	cycles  atomic.Int32
	hold    time.Duration
	started chan int
}

func (r *recorder) restart(ctx context.Context) {
	n := r.running.Add(1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	id := int(r.cycles.Add(1))
	if r.started != nil {
		r.started <- id
	}
	time.Sleep(r.hold)
	r.running.Add(-1)
}

func TestScheduler_NotifyDebounces(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.restart, Config{Debounce: 50 * time.Millisecond}, logging.Discard())
	defer s.Stop()

	for i := 0; i < 20; i++ {
		s.Notify(watch.Event{Op: watch.OpChange, Path: "server/index.yaml"})
	}

	time.Sleep(200 * time.Millisecond)

	if got := rec.cycles.Load(); got != 1 {
		t.Errorf("restart cycles = %d, want 1", got)
	}
}

func TestScheduler_RestartSerializes(t *testing.T) {
	const n = 5

	rec := &recorder{hold: 20 * time.Millisecond, started: make(chan int, n)}
	var queuedMax atomic.Int32
	s := NewScheduler(rec.restart, Config{
		OnQueueChange: func(q int) {
			if int32(q) > queuedMax.Load() {
				queuedMax.Store(int32(q))
			}
		},
	}, logging.Discard())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Restart(context.Background())
	}()
	<-rec.started

	// Every later request arrives while an earlier one is executing.
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Restart(context.Background())
		}()
	}

	wg.Wait()

	if got := rec.cycles.Load(); got != n {
		t.Errorf("restart cycles = %d, want %d", got, n)
	}
	if got := rec.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent restarts = %d, want 1", got)
	}
	if queuedMax.Load() < 1 {
		t.Errorf("max queued = %d, want at least 1", queuedMax.Load())
	}
	if s.Queued() != 0 {
		t.Errorf("Queued() = %d, want 0", s.Queued())
	}
}

func TestScheduler_RestartIgnoresCancellation(t *testing.T) {
	var sawCancel atomic.Bool
	s := NewScheduler(func(ctx context.Context) {
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
	}, Config{}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Restart(ctx)

	if sawCancel.Load() {
		t.Error("restart cycle observed a cancelled context")
	}
}

func TestScheduler_Wait(t *testing.T) {
	release := make(chan struct{})
	s := NewScheduler(func(context.Context) { <-release }, Config{}, logging.Discard())

	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() on idle scheduler error = %v", err)
	}

	go s.Restart(context.Background())
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Error("Wait() returned before the in-flight restart finished")
	}

	close(release)
	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestScheduler_StopCancelsPending(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.restart, Config{Debounce: 30 * time.Millisecond}, logging.Discard())

	s.Notify(watch.Event{Op: watch.OpAdd, Path: "x"})
	if !s.Pending() {
		t.Error("Pending() = false after Notify, want true")
	}
	s.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := rec.cycles.Load(); got != 0 {
		t.Errorf("restart cycles = %d, want 0", got)
	}
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(rec.restart, Config{}, logging.Discard())

	s.Stop()
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// A debounced callback that passed its check before Stop lands here.
	s.Restart(context.Background())

	if got := rec.cycles.Load(); got != 0 {
		t.Errorf("restart cycles = %d, want 0", got)
	}
	if got := s.Queued(); got != 0 {
		t.Errorf("Queued() = %d, want 0", got)
	}
}

func TestScheduler_StopKeepsInFlight(t *testing.T) {
	rec := &recorder{hold: 50 * time.Millisecond, started: make(chan int, 1)}
	s := NewScheduler(rec.restart, Config{}, logging.Discard())

	go s.Restart(context.Background())
	<-rec.started

	s.Stop()
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := rec.running.Load(); got != 0 {
		t.Errorf("running cycles after Wait = %d, want 0", got)
	}
	if got := rec.cycles.Load(); got != 1 {
		t.Errorf("restart cycles = %d, want 1", got)
	}
}
