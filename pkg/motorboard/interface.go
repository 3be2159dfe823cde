// Package motorboard holds the motor-controller interface and the policies
// layered on top of it: verified failsafe switching and board discovery.
package motorboard

import "fmt"

type Channel int

const (
	Motor1 Channel = 1
	Motor2 Channel = 2
)

// Address is a 7-bit bus address.
type Address uint16

func (a Address) String() string {
	return fmt.Sprintf("0x%02X", uint16(a))
}

// Board is a two-channel motor controller with an RGB indicator, battery
// monitoring and a comms watchdog ("failsafe") that stops the motors if
// commands stop arriving.
type Board interface {
	SetMotorSpeed(channel Channel, value float64) error
	MotorsOff() error

	SetIndicator(r, g, b bool) error
	SetIndicatorFollowsBattery(follow bool) error

	BatteryLimits() (min, max float64, err error)
	BatteryVoltage() (float64, error)

	SetCommsFailsafe(enabled bool) error
	CommsFailsafe() (bool, error)
}

// Prober discovers boards on the bus.
type Prober interface {
	// Responds reports whether a board answers at the address.
	Responds(addr Address) bool
	// ScanBus returns every address a board answers at.
	ScanBus() ([]Address, error)
}
