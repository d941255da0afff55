package joystick

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encode(events ...rawEvent) io.ReadCloser {
	var buf bytes.Buffer
	for _, e := range events {
		_ = binary.Write(&buf, binary.LittleEndian, e)
	}
	return io.NopCloser(&buf)
}

func TestReadEvent(t *testing.T) {
	j := FromReader(encode(
		rawEvent{Time: 1000, Value: 0, Type: EventTypeButton | eventTypeInit, Number: ButtonCross},
		rawEvent{Time: 1250, Value: 1, Type: EventTypeButton, Number: ButtonTriangle},
		rawEvent{Time: 1300, Value: -32767, Type: EventTypeAxis, Number: AxisDPadX},
	))

	first, err := j.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, EventType(EventTypeButton), first.Type)

	second, err := j.ReadEvent()
	require.NoError(t, err)
	assert.True(t, second.Pressed(ButtonTriangle))
	assert.False(t, second.Pressed(ButtonCross))
	assert.Equal(t, 250*1e6, float64(second.Time.Sub(first.Time)))

	third, err := j.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "axis(6)=-32767", third.String())

	_, err = j.ReadEvent()
	assert.Error(t, err)
}

func TestLoopReadingEventsClosesChannel(t *testing.T) {
	j := FromReader(encode(rawEvent{Time: 1, Value: 1, Type: EventTypeButton, Number: ButtonOptions}))
	events := make(chan *Event, 4)
	err := LoopReadingEvents(context.Background(), j, events, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, io.EOF)

	e, ok := <-events
	require.True(t, ok)
	assert.True(t, e.Pressed(ButtonOptions))
	_, ok = <-events
	assert.False(t, ok)
}
