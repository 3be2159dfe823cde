package drive

import (
	"github.com/pkg/errors"
)

var ErrInvalidVoltage = errors.New("invalid voltage")

// PowerProfile limits the motor duty cycle so that a battery above the
// motors' rated voltage doesn't overdrive them.
type PowerProfile struct {
	VoltageIn  float64 // Supply voltage.
	VoltageOut float64 // Rated motor voltage.
	MaxPower   float64
}

// ComputeMaxPower returns voltageOut/voltageIn, never more than 1.
// voltageIn must be positive.
func ComputeMaxPower(voltageIn, voltageOut float64) float64 {
	if voltageOut > voltageIn {
		return 1.0
	}
	return voltageOut / voltageIn
}

func NewPowerProfile(voltageIn, voltageOut float64) (PowerProfile, error) {
	if !(voltageIn > 0) {
		return PowerProfile{}, errors.Wrapf(ErrInvalidVoltage, "voltage in %v must be positive", voltageIn)
	}
	if !(voltageOut > 0) {
		return PowerProfile{}, errors.Wrapf(ErrInvalidVoltage, "voltage out %v must be positive", voltageOut)
	}
	return PowerProfile{
		VoltageIn:  voltageIn,
		VoltageOut: voltageOut,
		MaxPower:   ComputeMaxPower(voltageIn, voltageOut),
	}, nil
}
