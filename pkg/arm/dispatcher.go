package arm

import (
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// TransportError is returned when a command could not be delivered.  By the
// time it is returned the arm has already been emergency stopped.
type TransportError struct {
	Command Command
	Err     error
	// ResetErr is set if the emergency reset failed as well.
	ResetErr error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("arm command %v failed: %v", e.Command, e.Err)
	if e.ResetErr != nil {
		msg += fmt.Sprintf(" (emergency reset also failed: %v)", e.ResetErr)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type State int

const (
	StateIdle State = iota
	StateSending
	StateEmergencyStop
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateEmergencyStop:
		return "emergency-stop"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Dispatcher sends commands to the arm one at a time and owns the light
// state, which it re-asserts after every stop.
type Dispatcher struct {
	dev    Device
	log    golog.Logger
	state  State
	light  bool
	onStop func(error)
}

func NewDispatcher(dev Device, log golog.Logger) *Dispatcher {
	return &Dispatcher{
		dev: dev,
		log: log,
	}
}

// OnEmergencyStop registers a callback run after every emergency stop.
func (d *Dispatcher) OnEmergencyStop(f func(err error)) {
	d.onStop = f
}

func (d *Dispatcher) LightOn() bool {
	return d.light
}

func (d *Dispatcher) State() State {
	return d.state
}

// Send delivers one command.  On failure the arm is reset without restoring
// the light and the failure is returned as a *TransportError.
func (d *Dispatcher) Send(c Command) error {
	d.state = StateSending
	defer func() {
		d.state = StateIdle
	}()

	var err error
	switch {
	case c == LightToggle:
		d.light = !d.light
		if d.light {
			err = d.send(SignalLightOn)
		} else {
			err = d.send(SignalOff)
		}
	case c == Stop:
		err = d.send(SignalOff)
		if err == nil && d.light {
			err = d.send(SignalLightOn)
		}
	case c.IsMotion():
		err = d.send(motionSignals[c])
	default:
		return errors.Errorf("unknown arm command %v", c)
	}
	if err != nil {
		return d.emergencyStop(c, err)
	}
	return nil
}

func (d *Dispatcher) send(s Signal) error {
	return d.dev.SendDiscreteCommand(s[0], s[1], s[2])
}

func (d *Dispatcher) emergencyStop(c Command, cause error) error {
	d.state = StateEmergencyStop
	d.log.Warnw("Arm command failed, emergency stopping", "command", c, "error", cause)
	te := &TransportError{Command: c, Err: cause}
	if err := d.dev.Reset(); err != nil {
		d.log.Errorw("Arm emergency reset failed", "error", err)
		te.ResetErr = err
	}
	if d.onStop != nil {
		d.onStop(te)
	}
	return te
}
