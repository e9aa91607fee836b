// Package editor connects code edits to the assistant: bursts of changes are
// coalesced by a trailing debounce into one analysis.
package editor

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered func once no new trigger has
// arrived for the delay. Each Trigger restarts the wait.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the default delay, replacing any pending func.
func (d *Debouncer) Trigger(fn func()) {
	d.TriggerAfter(d.delay, fn)
}

// TriggerAfter schedules fn after delay, replacing any pending func.
func (d *Debouncer) TriggerAfter(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// A timer that fired while being replaced must not run.
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels the pending func and reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}

// Pending reports whether a func is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
