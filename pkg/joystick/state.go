package joystick

import (
	"math"

	"github.com/pkg/errors"
)

// Kind classifies an event by what the rest of the robot reacts to.
type Kind int

const (
	KindIgnored Kind = iota
	KindAxisMotion
	KindButtonDown
	KindButtonUp
)

func (k Kind) String() string {
	switch k {
	case KindAxisMotion:
		return "axis-motion"
	case KindButtonDown:
		return "button-down"
	case KindButtonUp:
		return "button-up"
	default:
		return "ignored"
	}
}

var ErrUnknownAxis = errors.New("axis not reported by joystick")

// State is the last reported value of every axis and button.  It is fed from
// the event stream, so it is only as current as the last event applied.
type State struct {
	axes    map[uint8]int16
	buttons map[uint8]bool
}

func NewState() *State {
	return &State{
		axes:    map[uint8]int16{},
		buttons: map[uint8]bool{},
	}
}

// Apply records the event and returns its kind.
func (s *State) Apply(e *Event) Kind {
	switch e.Type {
	case EventTypeAxis:
		s.axes[e.Number] = e.Value
		return KindAxisMotion
	case EventTypeButton:
		pressed := e.Value != 0
		s.buttons[e.Number] = pressed
		if pressed {
			return KindButtonDown
		}
		return KindButtonUp
	}
	return KindIgnored
}

// AxisValue returns the axis position normalised to [-1, 1].
func (s *State) AxisValue(index int) (float64, error) {
	if index < 0 || index > math.MaxUint8 {
		return 0, errors.Wrapf(ErrUnknownAxis, "axis %d", index)
	}
	raw, ok := s.axes[uint8(index)]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownAxis, "axis %d", index)
	}
	v := float64(raw) / AxisMax
	// -32768 is a legal raw value.
	return math.Max(-1, math.Min(1, v)), nil
}

// ButtonPressed reports whether the button is held.  Buttons that have never
// been reported read as released.
func (s *State) ButtonPressed(index int) bool {
	if index < 0 || index > math.MaxUint8 {
		return false
	}
	return s.buttons[uint8(index)]
}
