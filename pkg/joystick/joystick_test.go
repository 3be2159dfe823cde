package joystick

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func encode(t *testing.T, events ...rawEvent) io.ReadCloser {
	var buf bytes.Buffer
	for _, e := range events {
		if err := binary.Write(&buf, binary.LittleEndian, e); err != nil {
			t.Fatal(err)
		}
	}
	return io.NopCloser(&buf)
}

func TestReadEvent(t *testing.T) {
	j := FromReader(encode(t,
		rawEvent{Time: 1000, Value: -32767, Type: 0x82, Number: 1},
		rawEvent{Time: 1250, Value: 1, Type: 0x01, Number: 8},
	))

	e, err := j.ReadEvent()
	if err != nil {
		t.Fatal(err)
	}
	if e.Type != EventTypeAxis || e.Number != 1 || e.Value != -32767 || !e.Init {
		t.Fatalf("Unexpected first event %+v", e)
	}

	e2, err := j.ReadEvent()
	if err != nil {
		t.Fatal(err)
	}
	if e2.Type != EventTypeButton || e2.Init {
		t.Fatalf("Unexpected second event %+v", e2)
	}
	if d := e2.Time.Sub(e.Time); d != 250*time.Millisecond {
		t.Fatalf("Expected events 250ms apart, got %v", d)
	}

	if _, err := j.ReadEvent(); err != io.EOF {
		t.Fatalf("Expected EOF at end of stream, got %v", err)
	}
}

func TestStateAxisNormalisation(t *testing.T) {
	s := NewState()
	for _, test := range []struct {
		raw      int16
		expected float64
	}{
		{0, 0},
		{32767, 1},
		{-32767, -1},
		{-32768, -1},
	} {
		kind := s.Apply(&Event{Type: EventTypeAxis, Number: 3, Value: test.raw})
		if kind != KindAxisMotion {
			t.Fatalf("Expected axis motion, got %v", kind)
		}
		v, err := s.AxisValue(3)
		if err != nil {
			t.Fatal(err)
		}
		if v != test.expected {
			t.Errorf("raw %d: got %v, expected %v", test.raw, v, test.expected)
		}
	}

	if _, err := s.AxisValue(4); !errors.Is(err, ErrUnknownAxis) {
		t.Errorf("Expected ErrUnknownAxis for unreported axis, got %v", err)
	}
	if _, err := s.AxisValue(-1); !errors.Is(err, ErrUnknownAxis) {
		t.Errorf("Expected ErrUnknownAxis for negative axis, got %v", err)
	}
}

func TestStateButtons(t *testing.T) {
	s := NewState()
	if s.ButtonPressed(8) {
		t.Fatal("Unreported button should read as released")
	}
	if k := s.Apply(&Event{Type: EventTypeButton, Number: 8, Value: 1}); k != KindButtonDown {
		t.Fatalf("Expected button down, got %v", k)
	}
	if !s.ButtonPressed(8) {
		t.Fatal("Button 8 should be pressed")
	}
	if k := s.Apply(&Event{Type: EventTypeButton, Number: 8, Value: 0}); k != KindButtonUp {
		t.Fatalf("Expected button up, got %v", k)
	}
	if s.ButtonPressed(8) {
		t.Fatal("Button 8 should be released")
	}
	if k := s.Apply(&Event{Type: EventType(9)}); k != KindIgnored {
		t.Fatalf("Expected unknown event type to be ignored, got %v", k)
	}
}

func TestWaitForRetriesUntilFound(t *testing.T) {
	attempts := 0
	var missing []error
	open := func(string) (*Joystick, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("no such device")
		}
		return FromReader(encode(t)), nil
	}
	j, err := WaitFor(context.Background(), "/dev/input/js0", time.Millisecond, open, func(err error) {
		missing = append(missing, err)
	})
	if err != nil {
		t.Fatal(err)
	}
	if j == nil || attempts != 3 || len(missing) != 2 {
		t.Fatalf("Expected 3 attempts and 2 missing callbacks, got %d and %d", attempts, len(missing))
	}
}

func TestWaitForCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	open := func(string) (*Joystick, error) {
		return nil, errors.New("no such device")
	}
	_, err := WaitFor(ctx, "/dev/input/js0", time.Hour, open, func(error) {
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestPumpClosesChannelOnEOF(t *testing.T) {
	j := FromReader(encode(t, rawEvent{Time: 1, Value: 1, Type: 1, Number: 2}))
	events := make(chan *Event, 4)
	err := Pump(context.Background(), j, events)
	if err != io.EOF {
		t.Fatalf("Expected EOF, got %v", err)
	}
	var got []*Event
	for e := range events {
		got = append(got, e)
	}
	if len(got) != 1 || got[0].Number != 2 {
		t.Fatalf("Unexpected events %v", got)
	}
}
