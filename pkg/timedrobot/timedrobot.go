// Package timedrobot runs a robot program's lifecycle hooks on a fixed period.
//
// Every tick the runner picks up the most recently requested mode.  On a mode
// change it calls the new mode's Init hook; then it calls the mode's Periodic
// hook and finally RobotPeriodic.  RobotInit runs once, before the first tick.
// All hooks run on the goroutine that called Run, one at a time.
package timedrobot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const DefaultPeriod = 20 * time.Millisecond

type Mode int

const (
	Disabled Mode = iota
	Autonomous
	Teleop
	Test
)

var AllModes = []Mode{Disabled, Autonomous, Teleop, Test}

func (m Mode) String() string {
	switch m {
	case Disabled:
		return "Disabled"
	case Autonomous:
		return "Autonomous"
	case Teleop:
		return "Teleop"
	case Test:
		return "Test"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Hooks is the set of callbacks a robot program provides.  Embed Base to pick
// up no-op defaults.
type Hooks interface {
	RobotInit()
	RobotPeriodic()

	DisabledInit()
	DisabledPeriodic()

	AutonomousInit()
	AutonomousPeriodic()

	TeleopInit()
	TeleopPeriodic()

	TestInit()
	TestPeriodic()
}

type Base struct{}

func (Base) RobotInit()          {}
func (Base) RobotPeriodic()      {}
func (Base) DisabledInit()       {}
func (Base) DisabledPeriodic()   {}
func (Base) AutonomousInit()     {}
func (Base) AutonomousPeriodic() {}
func (Base) TeleopInit()         {}
func (Base) TeleopPeriodic()     {}
func (Base) TestInit()           {}
func (Base) TestPeriodic()       {}

var _ Hooks = Base{}

type Runner struct {
	hooks  Hooks
	period time.Duration
	clock  clock.Clock
	log    *zap.SugaredLogger

	// OnModeChange, if set, is called on the loop goroutine before the new
	// mode's Init hook.
	OnModeChange func(from, to Mode)

	lock      sync.Mutex
	requested Mode

	// Owned by the loop goroutine.
	initDone bool
	current  Mode
	overruns int
}

func New(hooks Hooks, period time.Duration, c clock.Clock, log *zap.SugaredLogger) *Runner {
	if period <= 0 {
		period = DefaultPeriod
	}
	if c == nil {
		c = clock.New()
	}
	return &Runner{
		hooks:  hooks,
		period: period,
		clock:  c,
		log:    log,
	}
}

// RequestMode asks for a mode switch at the next tick.  Safe to call from any
// goroutine; the latest request wins.
func (r *Runner) RequestMode(m Mode) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.requested = m
}

func (r *Runner) RequestedMode() Mode {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.requested
}

// Run ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := r.clock.Ticker(r.period)
	defer ticker.Stop()
	for {
		r.Step()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Step runs a single tick.  It must not be called concurrently with Run.
func (r *Runner) Step() {
	start := r.clock.Now()

	if !r.initDone {
		r.log.Info("RobotInit")
		r.hooks.RobotInit()
	}
	next := r.RequestedMode()
	if !r.initDone || next != r.current {
		prev := r.current
		r.current = next
		r.log.Infow("Mode change", "from", prev, "to", next)
		if r.OnModeChange != nil {
			r.OnModeChange(prev, next)
		}
		r.callInit(next)
	}
	r.initDone = true
	r.callPeriodic(r.current)
	r.hooks.RobotPeriodic()

	if took := r.clock.Since(start); took > r.period {
		r.overruns++
		r.log.Warnw("Loop overrun", "mode", r.current, "took", took, "period", r.period)
	}
}

func (r *Runner) callInit(m Mode) {
	switch m {
	case Disabled:
		r.hooks.DisabledInit()
	case Autonomous:
		r.hooks.AutonomousInit()
	case Teleop:
		r.hooks.TeleopInit()
	case Test:
		r.hooks.TestInit()
	}
}

func (r *Runner) callPeriodic(m Mode) {
	switch m {
	case Disabled:
		r.hooks.DisabledPeriodic()
	case Autonomous:
		r.hooks.AutonomousPeriodic()
	case Teleop:
		r.hooks.TeleopPeriodic()
	case Test:
		r.hooks.TestPeriodic()
	}
}
