package fs

import (
	"sync"
	"time"

	"github.com/veikko/jamb/pkg/core"
)

// debouncer collapses bursts of events for the same element into one.
// Editors and atomic renames commonly emit several ops per save.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: map[string]*time.Timer{},
	}
}

// add schedules fire for the event after the debounce delay. A newer
// event with the same type and ID resets the timer.
func (d *debouncer) add(e core.Event, fire func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	key := string(e.Type) + ":" + e.ID
	if t, ok := d.timers[key]; ok {
		if t.Stop() {
			d.wg.Done()
		}
	}

	d.wg.Add(1)
	d.timers[key] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()

		if !stopped {
			fire(e)
		}
	})
}

// stopAndWait cancels pending timers and waits for in-flight callbacks
// to finish, up to the given timeout.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
