// Package countdown provides a per-form resend countdown.
//
// A Timer replaces a page-wide interval handle: each form owns its own Timer,
// at most one run is active at a time, and a run can be cancelled without
// its completion callback firing.
package countdown

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunning is returned by Start while a previous run is still active.
var ErrRunning = errors.New("countdown: already running")

// Timer counts down from a duration, reporting the remaining time on every
// tick. The zero value is ready to use.
type Timer struct {
	mu       sync.Mutex
	running  bool
	deadline time.Time
	cancel   context.CancelFunc
	// run identifies the active run so a stale goroutine cannot clear a
	// newer run's state.
	run uint64
}

// Start begins a countdown of d. onTick is called every tick with the time
// left (rounded to the tick); onDone is called once when the countdown
// reaches zero. Neither is called after Stop or after ctx is cancelled.
// Callbacks run on the timer's goroutine and may be nil.
func (t *Timer) Start(ctx context.Context, d, tick time.Duration, onTick func(remaining time.Duration), onDone func()) error {
	if d <= 0 {
		return errors.New("countdown: duration must be positive")
	}
	if tick <= 0 {
		tick = time.Second
	}

	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.run++
	run := t.run
	t.running = true
	t.deadline = time.Now().Add(d)
	t.cancel = cancel
	deadline := t.deadline
	t.mu.Unlock()

	go t.loop(runCtx, run, deadline, tick, onTick, onDone)
	return nil
}

func (t *Timer) loop(ctx context.Context, run uint64, deadline time.Time, tick time.Duration, onTick func(time.Duration), onDone func()) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.finish(run)
			return
		case now := <-ticker.C:
			left := deadline.Sub(now)
			if left <= 0 {
				if t.finish(run) && onDone != nil {
					onDone()
				}
				return
			}
			if onTick != nil && t.active(run) {
				onTick(left.Round(tick))
			}
		}
	}
}

// finish clears the run's state. It reports false when the run was already
// stopped, in which case onDone must not fire.
func (t *Timer) finish(run uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.run != run {
		return false
	}
	t.running = false
	t.deadline = time.Time{}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return true
}

func (t *Timer) active(run uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running && t.run == run
}

// Stop cancels the active run, if any.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.deadline = time.Time{}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Running reports whether a countdown is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Remaining returns the time left in the active run, or zero.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	left := time.Until(t.deadline)
	if left < 0 {
		return 0
	}
	return left
}
