// Package debounce coalesces rapid-fire query submissions into a single
// dispatch after a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
)

// DefaultQuietInterval is how long input must pause before a pending
// query is dispatched.
const DefaultQuietInterval = 300 * time.Millisecond

// Dispatcher schedules query dispatch after a quiet interval measured
// from the last Submit call. Only the most recent query submitted within
// a quiet window is ever dispatched; earlier ones are silently replaced.
//
// The dispatch callback runs on a timer goroutine. Dispatchers are safe
// for concurrent use.
type Dispatcher struct {
	mu       sync.Mutex
	quiet    time.Duration
	dispatch func(core.SearchQuery)
	timer    *time.Timer
	pending  *core.SearchQuery
	closed   bool
}

// NewDispatcher creates a dispatcher firing dispatch after quiet has
// elapsed since the last Submit. A non-positive quiet falls back to
// DefaultQuietInterval.
func NewDispatcher(quiet time.Duration, dispatch func(core.SearchQuery)) *Dispatcher {
	if quiet <= 0 {
		quiet = DefaultQuietInterval
	}
	return &Dispatcher{
		quiet:    quiet,
		dispatch: dispatch,
	}
}

// Submit schedules q for dispatch after the quiet interval. Any pending
// scheduled dispatch is cancelled and replaced, so a burst of N submits
// results in exactly one dispatch carrying the last query.
func (d *Dispatcher) Submit(q core.SearchQuery) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.pending = &q
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

// Flush dispatches any pending query immediately, bypassing the quiet
// interval. Used by explicit "Search" actions.
func (d *Dispatcher) Flush() {
	d.fire()
}

// Cancel drops any pending query without dispatching it.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop()
}

// Close cancels pending work and rejects all further submissions. Used
// on consumer teardown so no timer callback outlives its consumer.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop()
	d.closed = true
}

// Pending reports whether a query is waiting for its quiet interval.
func (d *Dispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Dispatcher) fire() {
	d.mu.Lock()
	if d.closed || d.pending == nil {
		d.mu.Unlock()
		return
	}
	q := *d.pending
	d.drop()
	d.mu.Unlock()

	d.dispatch(q)
}

// drop clears pending state; callers hold d.mu.
func (d *Dispatcher) drop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
