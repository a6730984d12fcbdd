// Package debounce collapses bursts of calls into a single delayed call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once the delay has
// elapsed without another trigger. The function runs on its own goroutine.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	fn      func()
	seq     uint64
	stopped bool
}

// New returns a Debouncer with the given delay. A non-positive delay still
// defers the call to a timer goroutine, so bursts issued from one goroutine
// collapse.
func New(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing any pending function and restarting the
// delay. It is a no-op after Stop.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seq++
	seq := d.seq
	d.fn = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.fn == nil {
		d.mu.Unlock()
		return
	}
	fn := d.fn
	d.fn = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// Flush runs the pending function immediately on the calling goroutine.
// It reports whether a function was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.fn
	d.fn = nil
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a function is waiting for its delay.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}

// Stop cancels the pending function and disables further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.fn = nil
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
