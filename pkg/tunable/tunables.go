package tunable

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Tunable is an integer the operator can nudge at runtime, clamped to [Min, Max].
type Tunable struct {
	Name     string
	Min, Max int64

	value int64
	log   *zap.SugaredLogger
}

func (t *Tunable) Add(delta int) {
	for {
		old := atomic.LoadInt64(&t.value)
		newV := clamp(old+int64(delta), t.Min, t.Max)
		if atomic.CompareAndSwapInt64(&t.value, old, newV) {
			t.log.Infow("Tunable", "name", t.Name, "value", newV)
			return
		}
	}
}

func (t *Tunable) Get() int {
	return int(atomic.LoadInt64(&t.value))
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tunables is a list with a selection cursor, driven from the joystick.
type Tunables struct {
	log *zap.SugaredLogger

	lock     sync.Mutex
	all      []*Tunable
	selected int
}

func New(log *zap.SugaredLogger) *Tunables {
	return &Tunables{log: log}
}

func (t *Tunables) Create(name string, value, min, max int) *Tunable {
	newTunable := &Tunable{
		Name:  name,
		Min:   int64(min),
		Max:   int64(max),
		value: clamp(int64(value), int64(min), int64(max)),
		log:   t.log,
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.all = append(t.all, newTunable)
	return newTunable
}

func (t *Tunables) SelectNext() {
	t.step(1)
}

func (t *Tunables) SelectPrev() {
	t.step(-1)
}

func (t *Tunables) step(delta int) {
	t.lock.Lock()
	if len(t.all) == 0 {
		t.lock.Unlock()
		return
	}
	t.selected = (t.selected + delta + len(t.all)) % len(t.all)
	cur := t.all[t.selected]
	t.lock.Unlock()
	t.log.Infow("Tunable selected", "name", cur.Name, "value", cur.Get())
}

// Current returns the selected tunable, or nil if there are none.
func (t *Tunables) Current() *Tunable {
	t.lock.Lock()
	defer t.lock.Unlock()
	if len(t.all) == 0 {
		return nil
	}
	return t.all[t.selected]
}
