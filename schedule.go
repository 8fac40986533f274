package vcedit

import "time"

// DefaultDebounce coalesces bursts of style edits (a slider drag) into one
// history entry.
const DefaultDebounce = 150 * time.Millisecond

// Clock schedules deferred work. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled task that can be cancelled.
type Timer interface {
	// Stop cancels the task. It reports false when the task already ran or
	// was already stopped.
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// debouncer holds at most one pending task; scheduling replaces it. Each
// task carries a generation so a task that already fired, but is still
// waiting for the session lock, can tell it was superseded.
type debouncer struct {
	clock Clock
	delay time.Duration
	timer Timer
	gen   uint64
}

// schedule replaces the pending task with f and returns f's generation.
func (d *debouncer) schedule(f func()) uint64 {
	d.cancel()
	d.gen++
	d.timer = d.clock.AfterFunc(d.delay, f)
	return d.gen
}

// fire consumes the pending task if gen is still current.
func (d *debouncer) fire(gen uint64) bool {
	if d.timer == nil || d.gen != gen {
		return false
	}
	d.timer = nil
	return true
}

// cancel drops the pending task and reports whether one was pending.
func (d *debouncer) cancel() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}
