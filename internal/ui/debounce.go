package ui

import (
	"sync"
	"time"
)

// Debouncer delays fn until wait has elapsed since the last Trigger.
// Each Debouncer owns its timer, so separate debouncers never interfere.
type Debouncer struct {
	fn   func()
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Debounce returns a Debouncer for fn.
func Debounce(fn func(), wait time.Duration) *Debouncer {
	return &Debouncer{fn: fn, wait: wait}
}

// Trigger cancels any pending call and schedules a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// fire runs fn unless a later Trigger, Flush or Stop superseded this timer.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Flush runs a pending call immediately. It reports whether one was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	d.fn()
	return true
}

// Stop cancels a pending call without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
