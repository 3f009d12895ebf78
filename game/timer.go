package game

import (
	"sync"
	"time"
)

// TurnTimer is a single-shot, cancellable deadline. Arming it again
// replaces the pending callback, so at most one callback is live at a time.
type TurnTimer struct {
	clock   Clock
	mu      sync.Mutex
	pending Stopper
	gen     uint64
}

func NewTurnTimer(clock Clock) *TurnTimer {
	if clock == nil {
		clock = SystemClock()
	}
	return &TurnTimer{clock: clock}
}

// Arm schedules fn to run once after d unless Cancel or Arm is called first.
func (t *TurnTimer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen

	t.pending = t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			// superseded by a later Arm or Cancel
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.mu.Unlock()

		fn()
	})
}

func (t *TurnTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
}

// Pending reports whether a callback is armed and has not fired yet.
func (t *TurnTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *TurnTimer) stopLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
