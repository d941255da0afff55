package driverstation

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/joystick"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/screen"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/timedrobot"
	"github.com/LSTROBOTICS/360-Degree-Lidar/pkg/tunable"
)

type fakeModes struct {
	lock    sync.Mutex
	current timedrobot.Mode
	history []timedrobot.Mode
}

func (f *fakeModes) RequestMode(m timedrobot.Mode) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.current = m
	f.history = append(f.history, m)
}

func (f *fakeModes) RequestedMode() timedrobot.Mode {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.current
}

type fakeNotices struct {
	log []string
}

func (f *fakeNotices) SetNotice(text string, level screen.Level) {
	f.log = append(f.log, "set "+text)
}

func (f *fakeNotices) ClearNotice(text string) {
	f.log = append(f.log, "clear "+text)
}

func button(n uint8) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeButton, Number: n, Value: 1}
}

func axis(n uint8, v int16) *joystick.Event {
	return &joystick.Event{Type: joystick.EventTypeAxis, Number: n, Value: v}
}

func newForTest() (*DriverStation, *fakeModes, *fakeNotices, *tunable.Tunables) {
	modes := &fakeModes{}
	notices := &fakeNotices{}
	tunables := tunable.New(zap.NewNop().Sugar())
	return New("", modes, tunables, notices, zap.NewNop().Sugar()), modes, notices, tunables
}

func TestButtonsSelectModes(t *testing.T) {
	ds, modes, _, _ := newForTest()

	ds.OnJoystickEvent(button(joystick.ButtonTriangle))
	assert.Equal(t, timedrobot.Autonomous, modes.RequestedMode())
	ds.OnJoystickEvent(button(joystick.ButtonCircle))
	assert.Equal(t, timedrobot.Teleop, modes.RequestedMode())
	ds.OnJoystickEvent(button(joystick.ButtonSquare))
	assert.Equal(t, timedrobot.Test, modes.RequestedMode())
	ds.OnJoystickEvent(button(joystick.ButtonCross))
	assert.Equal(t, timedrobot.Disabled, modes.RequestedMode())

	// Releases don't count.
	ds.OnJoystickEvent(&joystick.Event{Type: joystick.EventTypeButton, Number: joystick.ButtonTriangle, Value: 0})
	assert.Equal(t, timedrobot.Disabled, modes.RequestedMode())
}

func TestOptionsAndShareCycle(t *testing.T) {
	ds, modes, _, _ := newForTest()

	ds.OnJoystickEvent(button(joystick.ButtonOptions))
	assert.Equal(t, timedrobot.Autonomous, modes.RequestedMode())
	ds.OnJoystickEvent(button(joystick.ButtonShare))
	ds.OnJoystickEvent(button(joystick.ButtonShare))
	assert.Equal(t, timedrobot.Test, modes.RequestedMode())
	ds.OnJoystickEvent(button(joystick.ButtonOptions))
	assert.Equal(t, timedrobot.Disabled, modes.RequestedMode())
}

func TestDPadDrivesTunables(t *testing.T) {
	ds, _, _, tunables := newForTest()

	// No tunables yet; must not panic.
	ds.OnJoystickEvent(axis(joystick.AxisDPadX, 32767))

	start := tunables.Create("window_start", 80, 1, 339)
	width := tunables.Create("window_width", 20, 1, 60)

	ds.OnJoystickEvent(axis(joystick.AxisDPadX, 32767))
	ds.OnJoystickEvent(axis(joystick.AxisDPadX, 0))
	ds.OnJoystickEvent(axis(joystick.AxisDPadX, 32767))
	assert.Equal(t, 82, start.Get())

	ds.OnJoystickEvent(axis(joystick.AxisDPadY, 32767))
	ds.OnJoystickEvent(axis(joystick.AxisDPadX, -32767))
	assert.Equal(t, 19, width.Get())
	assert.Equal(t, 82, start.Get())

	ds.OnJoystickEvent(axis(joystick.AxisDPadY, -32767))
	assert.Same(t, start, tunables.Current())
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func TestLoopWaitsForJoystickAndDisablesOnLoss(t *testing.T) {
	defer func(d time.Duration) { retryInterval = d }(retryInterval)
	retryInterval = time.Millisecond

	ds, modes, notices, _ := newForTest()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, rawEvent{Time: 10, Value: 1, Type: joystick.EventTypeButton, Number: joystick.ButtonTriangle})

	opens := 0
	ds.openJoystick = func(device string) (*joystick.Joystick, error) {
		opens++
		switch opens {
		case 1:
			return nil, errors.New("no such device")
		case 2:
			return joystick.FromReader(io.NopCloser(&buf)), nil
		default:
			cancel()
			return nil, errors.New("no such device")
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ds.Loop(ctx)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Loop didn't return")
	}

	assert.Equal(t, 3, opens)
	assert.Equal(t, []timedrobot.Mode{timedrobot.Autonomous, timedrobot.Disabled}, modes.history)
	assert.Equal(t, []string{"set NO JOY", "clear NO JOY", "set NO JOY"}, notices.log)
}
