package reload

import (
	"sync"
	"time"
)

// Debouncer implements event debouncing to prevent restart storms.
// It collects rapid events and triggers the callback only after a quiet period.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	gen      uint64
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger records a new event. callback runs once interval has passed with
// no further Trigger calls; each call replaces the pending callback. Trigger
// after Stop is ignored.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.callback = callback
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}

	// A timer that already fired may be blocked on mu; the generation check
	// stops it from running a callback that a later Trigger superseded.
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		cb := d.callback
		d.callback = nil
		d.timer = nil
		d.mu.Unlock()

		if cb != nil {
			cb()
		}
	})
}

// Pending reports whether a callback is waiting for its quiet window.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.callback != nil
}

// Stop stops the debouncer and cancels any pending callback. A callback
// that is already running is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
