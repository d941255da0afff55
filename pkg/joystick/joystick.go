package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Button and pad mappings for the PS4 pad, as reported by the Linux joydev
// driver:
//
// Buttons
//
//    Cross     = 0
//    Circle    = 1
//    Triangle  = 2
//    Square    = 3
//    L1        = 4
//    R1        = 5
//    L2        = 6 (also an axis)
//    R2        = 7 (also an axis)
//    Share     = 8
//    Options   = 9
//    PS        = 10
//
// Axes
//
//    D-pad   u/d = 7 (up = -32767; down = +32767)
//            l/r = 6 (left = -32767; right = +32767)

type EventType uint8

const (
	EventTypeButton = 1
	EventTypeAxis   = 2

	// Set on the synthetic events the driver sends when the device is opened.
	eventTypeInit = 0x80
)

const (
	ButtonCross    = 0
	ButtonCircle   = 1
	ButtonTriangle = 2
	ButtonSquare   = 3
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonL2       = 6
	ButtonR2       = 7
	ButtonShare    = 8
	ButtonOptions  = 9
	ButtonPS       = 10

	AxisDPadX = 6
	AxisDPadY = 7
)

const DefaultDevice = "/dev/input/js0"

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

// Pressed reports whether e is the given button going down.
func (e *Event) Pressed(button uint8) bool {
	return e.Type == EventTypeButton && e.Number == button && e.Value == 1
}

func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return FromReader(f), nil
}

// FromReader decodes joydev events from any stream.
func FromReader(r io.ReadCloser) *Joystick {
	return &Joystick{device: r}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var rawEvent rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &rawEvent)
	if err != nil {
		return nil, err
	}

	if j.deviceEpoch == 0 {
		j.deviceEpoch = rawEvent.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(rawEvent.Time-j.deviceEpoch) * time.Millisecond),
		Value:  rawEvent.Value,
		Type:   EventType(rawEvent.Type &^ eventTypeInit),
		Number: rawEvent.Number,
	}, nil
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// LoopReadingEvents forwards events until the device fails or ctx is done,
// then closes both the device and the channel.
func LoopReadingEvents(ctx context.Context, j *Joystick, events chan<- *Event, log *zap.SugaredLogger) error {
	defer close(events)
	defer j.Close()
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			log.Warnw("Failed to read from joystick", "error", err)
			return err
		}
		log.Debugw("Joy", "event", event)
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}
