package driverstation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/joystick"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/screen"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/timedrobot"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/tunable"
)

const NoJoyNotice = "NO JOY"

var retryInterval = 1 * time.Second

type ModeRequester interface {
	RequestMode(m timedrobot.Mode)
	RequestedMode() timedrobot.Mode
}

type Notifier interface {
	SetNotice(text string, level screen.Level)
	ClearNotice(text string)
}

// DriverStation turns pad presses into mode requests, standing in for the
// competition driver station.
type DriverStation struct {
	modes    ModeRequester
	tunables *tunable.Tunables
	notices  Notifier
	log      *zap.SugaredLogger

	device       string
	openJoystick func(device string) (*joystick.Joystick, error)
}

func New(device string, modes ModeRequester, tunables *tunable.Tunables, notices Notifier, log *zap.SugaredLogger) *DriverStation {
	if device == "" {
		device = joystick.DefaultDevice
	}
	return &DriverStation{
		modes:        modes,
		tunables:     tunables,
		notices:      notices,
		log:          log,
		device:       device,
		openJoystick: joystick.NewJoystick,
	}
}

var buttonModes = map[uint8]timedrobot.Mode{
	joystick.ButtonCross:    timedrobot.Disabled,
	joystick.ButtonTriangle: timedrobot.Autonomous,
	joystick.ButtonCircle:   timedrobot.Teleop,
	joystick.ButtonSquare:   timedrobot.Test,
}

func (d *DriverStation) OnJoystickEvent(event *joystick.Event) {
	switch event.Type {
	case joystick.EventTypeButton:
		if event.Value != 1 {
			return
		}
		if m, ok := buttonModes[event.Number]; ok {
			d.log.Infow("Mode button", "mode", m)
			d.modes.RequestMode(m)
			return
		}
		switch event.Number {
		case joystick.ButtonOptions:
			d.cycleMode(1)
		case joystick.ButtonShare:
			d.cycleMode(-1)
		}
	case joystick.EventTypeAxis:
		d.onDPad(event)
	}
}

func (d *DriverStation) cycleMode(delta int) {
	n := len(timedrobot.AllModes)
	idx := (int(d.modes.RequestedMode()) + delta + n) % n
	m := timedrobot.AllModes[idx]
	d.log.Infow("Cycling mode", "mode", m)
	d.modes.RequestMode(m)
}

// D-pad up/down picks a tunable, left/right nudges it.  Releases (value 0)
// are ignored.
func (d *DriverStation) onDPad(event *joystick.Event) {
	if d.tunables == nil || event.Value == 0 {
		return
	}
	switch event.Number {
	case joystick.AxisDPadX:
		t := d.tunables.Current()
		if t == nil {
			return
		}
		if event.Value < 0 {
			t.Add(-1)
		} else {
			t.Add(1)
		}
	case joystick.AxisDPadY:
		if event.Value < 0 {
			d.tunables.SelectPrev()
		} else {
			d.tunables.SelectNext()
		}
	}
}

// Loop waits for the pad, feeds its events to OnJoystickEvent and, if the pad
// goes away, disables the robot and goes back to waiting.  Returns when ctx is
// done.
func (d *DriverStation) Loop(ctx context.Context) {
	for ctx.Err() == nil {
		j := d.waitForJoystick(ctx)
		if j == nil {
			return
		}
		events := make(chan *joystick.Event, 1)
		go func() {
			err := joystick.LoopReadingEvents(ctx, j, events, d.log)
			d.log.Infow("Joystick loop finished", "error", err)
		}()
		for event := range events {
			d.OnJoystickEvent(event)
		}
		if ctx.Err() == nil {
			d.log.Warn("Lost joystick, disabling")
			d.modes.RequestMode(timedrobot.Disabled)
		}
	}
}

func (d *DriverStation) waitForJoystick(ctx context.Context) *joystick.Joystick {
	firstLog := true
	for {
		j, err := d.openJoystick(d.device)
		if err == nil {
			d.notices.ClearNotice(NoJoyNotice)
			d.log.Infow("Opened joystick", "device", d.device)
			return j
		}
		if firstLog {
			d.notices.SetNotice(NoJoyNotice, screen.LevelErr)
			d.log.Infow("Waiting for joystick", "error", err)
			firstLog = false
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryInterval):
		}
	}
}
