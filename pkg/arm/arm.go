// Package arm drives a relay-style five-axis arm: every command is a fixed
// three-byte bit pattern and the device remembers nothing between commands.
package arm

import "fmt"

// Device is the USB arm.  The light and the motors share one command, so the
// device cannot keep the light on across a motion or stop command by itself.
type Device interface {
	SendDiscreteCommand(a, b, c byte) error
	Reset() error
}

type Command int

const (
	GripOpen Command = iota
	GripClose
	BaseCW
	BaseACW
	ShoulderUp
	ShoulderDown
	ElbowUp
	ElbowDown
	WristUp
	WristDown
	LightToggle
	Stop
)

var commandNames = map[Command]string{
	GripOpen:     "grip-open",
	GripClose:    "grip-close",
	BaseCW:       "base-cw",
	BaseACW:      "base-acw",
	ShoulderUp:   "shoulder-up",
	ShoulderDown: "shoulder-down",
	ElbowUp:      "elbow-up",
	ElbowDown:    "elbow-down",
	WristUp:      "wrist-up",
	WristDown:    "wrist-down",
	LightToggle:  "light-toggle",
	Stop:         "stop",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(c))
}

// ParseCommand is the inverse of String.
func ParseCommand(s string) (Command, bool) {
	for c, n := range commandNames {
		if n == s {
			return c, true
		}
	}
	return 0, false
}

// Signal is one three-byte arm command.
type Signal [3]byte

var (
	SignalOff     = Signal{0, 0, 0}
	SignalLightOn = Signal{0, 0, 1}
)

var motionSignals = map[Command]Signal{
	GripClose:    {1, 0, 0},
	GripOpen:     {2, 0, 0},
	WristUp:      {4, 0, 0},
	WristDown:    {8, 0, 0},
	ElbowUp:      {16, 0, 0},
	ElbowDown:    {32, 0, 0},
	ShoulderUp:   {64, 0, 0},
	ShoulderDown: {128, 0, 0},
	BaseACW:      {0, 1, 0},
	BaseCW:       {0, 2, 0},
}

// IsMotion reports whether the command moves a joint.
func (c Command) IsMotion() bool {
	_, ok := motionSignals[c]
	return ok
}
