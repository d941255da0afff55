package timer

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer is a resettable stopwatch.  Time accumulates only while it is running.
type Timer struct {
	clock clock.Clock

	lock        sync.Mutex
	running     bool
	startTime   time.Time
	accumulated time.Duration
}

func New(c clock.Clock) *Timer {
	if c == nil {
		c = clock.New()
	}
	return &Timer{clock: c}
}

// Reset zeroes the elapsed time without changing whether the timer runs.
func (t *Timer) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.accumulated = 0
	t.startTime = t.clock.Now()
}

func (t *Timer) Start() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.running {
		return
	}
	t.startTime = t.clock.Now()
	t.running = true
}

func (t *Timer) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.running {
		return
	}
	t.accumulated += t.clock.Since(t.startTime)
	t.running = false
}

func (t *Timer) Get() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.running {
		return t.accumulated + t.clock.Since(t.startTime)
	}
	return t.accumulated
}

func (t *Timer) HasElapsed(d time.Duration) bool {
	return t.Get() >= d
}

func (t *Timer) IsRunning() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.running
}
