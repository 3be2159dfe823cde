package joystick

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Raw events from the Linux joystick API (/dev/input/jsN) are 8 bytes:
//
//    u32 time    (ms, device clock)
//    s16 value   (axes -32767..32767; buttons 0/1)
//    u8  type    (0x01 button, 0x02 axis, 0x80 flag = synthetic initial state)
//    u8  number  (axis or button index)

type EventType uint8

const (
	EventTypeButton EventType = 1
	EventTypeAxis   EventType = 2

	eventTypeInit = 0x80
)

const AxisMax = math.MaxInt16

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
	// Init is set for the synthetic events the driver sends on open to
	// report the current state of every axis and button.
	Init bool
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return FromReader(f), nil
}

// FromReader wraps an already-open event stream.
func FromReader(r io.ReadCloser) *Joystick {
	return &Joystick{
		device: r,
	}
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
		Type:   EventType(rawEvent.Type & 0x7f),
		Number: rawEvent.Number,
		Init:   rawEvent.Type&eventTypeInit != 0,
	}, nil
}

func (j *Joystick) Close() error {
	return j.device.Close()
}
