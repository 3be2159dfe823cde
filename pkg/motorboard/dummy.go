package motorboard

import (
	"fmt"
)

// Dummy returns a board that prints what it is asked to do.
func Dummy() *DummyBoard {
	return &DummyBoard{BatteryMin: 7, BatteryMax: 35, Battery: 12}
}

type DummyBoard struct {
	BatteryMin, BatteryMax, Battery float64

	failsafe bool
}

var _ Board = (*DummyBoard)(nil)
var _ Prober = (*DummyBoard)(nil)

func (d *DummyBoard) SetMotorSpeed(channel Channel, value float64) error {
	fmt.Printf("Dummy board setting motor %d to %.3f\n", channel, value)
	return nil
}

func (d *DummyBoard) MotorsOff() error {
	fmt.Println("Dummy board motors off")
	return nil
}

func (d *DummyBoard) SetIndicator(r, g, b bool) error {
	fmt.Printf("Dummy board LEDs r=%v g=%v b=%v\n", r, g, b)
	return nil
}

func (d *DummyBoard) SetIndicatorFollowsBattery(follow bool) error {
	fmt.Printf("Dummy board LEDs follow battery=%v\n", follow)
	return nil
}

func (d *DummyBoard) BatteryLimits() (min, max float64, err error) {
	return d.BatteryMin, d.BatteryMax, nil
}

func (d *DummyBoard) BatteryVoltage() (float64, error) {
	return d.Battery, nil
}

func (d *DummyBoard) SetCommsFailsafe(enabled bool) error {
	d.failsafe = enabled
	return nil
}

func (d *DummyBoard) CommsFailsafe() (bool, error) {
	return d.failsafe, nil
}

func (d *DummyBoard) Responds(addr Address) bool {
	return true
}

func (d *DummyBoard) ScanBus() ([]Address, error) {
	return nil, nil
}
