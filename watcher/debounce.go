package watcher

import (
	"sync"
	"time"
)

// debouncer collapses calls scheduled while one is pending into a single
// run. A later call can only bring the pending deadline forward, so a
// steady stream of triggers never postpones the run indefinitely.
type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
	stopped  bool
}

func (d *debouncer) schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	deadline := time.Now().Add(delay)
	if d.timer != nil {
		if !deadline.Before(d.deadline) {
			return
		}
		d.timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.stopped || d.timer != timer {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.timer = timer
	d.deadline = deadline
}

// stop cancels the pending call and refuses new ones.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
