package clock

import (
	"sync"
	"time"
)

// Clock provides the subset of package time the engine depends on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// NewTimer creates a Timer that delivers the current time on its channel
	// after at least duration d.
	NewTimer(d time.Duration) Timer
}

// Timer abstracts time.Timer.
type Timer interface {
	// C returns the channel on which the time is delivered.
	C() <-chan time.Time
	// Stop prevents the Timer from firing. It reports whether the timer was active.
	Stop() bool
	// Reset re-arms the timer to fire after duration d.
	Reset(d time.Duration) bool
}

// Real returns a Clock backed by package time.
//
//nolint:ireturn // Callers hold the interface.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

//nolint:ireturn // Indirects time.NewTimer.
func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{Timer: time.NewTimer(d)}
}

type realTimer struct {
	*time.Timer
}

func (t realTimer) C() <-chan time.Time {
	return t.Timer.C
}

// Virtual is a manually controlled Clock for tests.
type Virtual struct {
	// mu protects now and timers.
	mu sync.Mutex
	// now is the current virtual time.
	now time.Time
	// timers holds every timer created by this clock.
	timers []*virtualTimer
}

// NewVirtual creates a Virtual clock set to start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.now
}

// Advance moves the clock forward by d and fires every timer whose deadline
// is not after the new time. Negative durations are ignored.
func (v *Virtual) Advance(d time.Duration) {
	if d < 0 {
		return
	}

	v.mu.Lock()
	v.now = v.now.Add(d)
	now := v.now
	timers := make([]*virtualTimer, len(v.timers))
	copy(timers, v.timers)
	v.mu.Unlock()

	for _, t := range timers {
		t.fireIfDue(now)
	}
}

// NewTimer creates a timer that fires once Advance reaches now+d.
//
//nolint:ireturn // Satisfies Clock.
func (v *Virtual) NewTimer(d time.Duration) Timer {
	t := &virtualTimer{
		clock: v,
		ch:    make(chan time.Time, 1),
	}

	v.mu.Lock()
	v.timers = append(v.timers, t)
	v.mu.Unlock()

	t.Reset(d)

	return t
}

// ActiveTimers returns how many timers are armed and not yet fired.
func (v *Virtual) ActiveTimers() int {
	v.mu.Lock()
	timers := make([]*virtualTimer, len(v.timers))
	copy(timers, v.timers)
	v.mu.Unlock()

	var active int

	for _, t := range timers {
		t.mu.Lock()
		if t.armed {
			active++
		}
		t.mu.Unlock()
	}

	return active
}

// virtualTimer is a Timer driven by Virtual.Advance.
type virtualTimer struct {
	// clock is the owning virtual clock.
	clock *Virtual
	// ch receives the fire time; buffered so firing never blocks Advance.
	ch chan time.Time

	// mu protects deadline and armed.
	mu sync.Mutex
	// deadline is the virtual time at which the timer fires.
	deadline time.Time
	// armed is true between Reset and the fire or Stop.
	armed bool
}

func (t *virtualTimer) C() <-chan time.Time {
	return t.ch
}

func (t *virtualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasArmed := t.armed
	t.armed = false
	t.drain()

	return wasArmed
}

func (t *virtualTimer) Reset(d time.Duration) bool {
	now := t.clock.Now()

	t.mu.Lock()
	wasArmed := t.armed
	t.armed = true
	t.deadline = now.Add(d)
	t.drain()
	t.mu.Unlock()

	if d <= 0 {
		t.fireIfDue(now)
	}

	return wasArmed
}

// drain discards a fire that was delivered but not consumed, matching the
// Go 1.23 time.Timer guarantee that Stop and Reset never leave stale values.
func (t *virtualTimer) drain() {
	select {
	case <-t.ch:
	default:
	}
}

func (t *virtualTimer) fireIfDue(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armed || now.Before(t.deadline) {
		return
	}

	t.armed = false

	select {
	case t.ch <- now:
	default:
	}
}
