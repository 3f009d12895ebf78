package game

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (ft *fakeTimer) Stop() bool {
	ft.clock.mu.Lock()
	defer ft.clock.mu.Unlock()
	active := !ft.stopped && !ft.fired
	ft.stopped = true
	return active
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Advance moves the clock forward and runs every due timer in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired && !ft.at.After(c.now) {
			ft.fired = true
			due = append(due, ft)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, ft := range due {
		ft.fn()
	}
}

func (c *fakeClock) live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired {
			n++
		}
	}
	return n
}

type fixedWords struct {
	word, decoy string
}

func (w fixedWords) Pair() (string, string) {
	return w.word, w.decoy
}

// pickIndex always chooses the imposter at position i.
func pickIndex(i int) func(int) int {
	return func(int) int { return i }
}

type updateRecorder struct {
	mu      sync.Mutex
	updates []Update
}

func (ur *updateRecorder) handle(u Update) {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	ur.updates = append(ur.updates, u)
}

func (ur *updateRecorder) all() []Update {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	return append([]Update{}, ur.updates...)
}

// newTestRoom builds a room hosted by the first id with the remaining ids
// joined in order. The imposter will be the player at imposterIdx.
func newTestRoom(t *testing.T, clock *fakeClock, imposterIdx int, ids ...string) (*Room, *updateRecorder) {
	t.Helper()

	rec := &updateRecorder{}
	r := NewRoom("ABC123", ids[0], ids[0],
		WithClock(clock),
		WithWords(fixedWords{word: "Tisch", decoy: "Rakete"}),
		WithPicker(pickIndex(imposterIdx)),
		WithUpdateHandler(rec.handle),
	)

	for _, id := range ids[1:] {
		_, err := r.AddPlayer(id, id)
		require.NoError(t, err)
	}

	return r, rec
}

func noticesOf[T Notice](u Update) []T {
	var out []T
	for _, n := range u.Notices {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func playerByID(t *testing.T, snap Snapshot, id string) Player {
	t.Helper()
	for _, p := range snap.Players {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("player %s not in snapshot", id)
	return Player{}
}

// finishDrawing lets every turn of the round expire.
func finishDrawing(r *Room, clock *fakeClock) {
	for r.Snapshot().Phase == PhaseDrawing {
		clock.Advance(TurnDuration)
	}
}
