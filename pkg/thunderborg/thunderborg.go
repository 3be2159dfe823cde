// Package thunderborg drives a PiBorg ThunderBorg dual motor controller over
// I2C.
package thunderborg

import (
	"io"
	"math"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/mikeymonster/pkg/motorboard"
)

const (
	DefaultAddr motorboard.Address = 0x15

	// FirstAddr and LastAddr bound the bus scan (the non-reserved 7-bit range).
	FirstAddr motorboard.Address = 0x03
	LastAddr  motorboard.Address = 0x77

	idThunderBorg = 0x15

	pwmMax = 255

	// Every read returns this many bytes, the first echoing the command.
	readLen = 6

	analogMax     = 0x3FF
	voltagePinMax = 36.3 // Battery voltage at a full-scale ADC reading.

	readRetries = 3
)

type Register byte

const (
	RegSetLEDs       Register = 5
	RegSetLEDBattMon Register = 6
	RegSetAFwd       Register = 8
	RegSetARev       Register = 9
	RegSetBFwd       Register = 11
	RegSetBRev       Register = 12
	RegAllOff        Register = 14
	RegSetFailsafe   Register = 19
	RegGetFailsafe   Register = 20
	RegGetBattVolt   Register = 21
	RegGetBattLimits Register = 23
	RegGetID         Register = 0x99
)

const (
	valueOff = 0
	valueOn  = 1
)

// Bus is the part of an I2C bus the board needs; periph's i2c.Bus satisfies
// it.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

var ErrBadReply = errors.New("ThunderBorg reply did not echo command")

type ThunderBorg struct {
	bus    Bus
	closer io.Closer
	addr   motorboard.Address
	log    golog.Logger
}

var _ motorboard.Board = (*ThunderBorg)(nil)
var _ motorboard.Prober = (*ThunderBorg)(nil)

// Open opens the named I2C bus ("" for the first one found) and returns a
// handle on the board at addr.  It does not check the board is there; use
// motorboard.Find for that.
func Open(busName string, addr motorboard.Address, log golog.Logger) (*ThunderBorg, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph host")
	}
	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C bus %q", busName)
	}
	tb := New(b, addr, log)
	tb.closer = b
	return tb, nil
}

// New wraps an already-open bus.
func New(bus Bus, addr motorboard.Address, log golog.Logger) *ThunderBorg {
	return &ThunderBorg{
		bus:  bus,
		addr: addr,
		log:  log,
	}
}

func (t *ThunderBorg) Address() motorboard.Address {
	return t.addr
}

func (t *ThunderBorg) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

func (t *ThunderBorg) write(reg Register, data ...byte) error {
	return t.writeTo(t.addr, reg, data...)
}

func (t *ThunderBorg) writeTo(addr motorboard.Address, reg Register, data ...byte) error {
	buf := append([]byte{byte(reg)}, data...)
	if err := t.bus.Tx(uint16(addr), buf, nil); err != nil {
		return errors.Wrapf(err, "ThunderBorg write %d to %v", reg, addr)
	}
	return nil
}

// readFrom sends the command and reads the reply, retrying if the reply does
// not echo the command.
func (t *ThunderBorg) readFrom(addr motorboard.Address, reg Register) ([readLen]byte, error) {
	var reply [readLen]byte
	var err error
	for tries := 0; tries < readRetries; tries++ {
		if err = t.writeTo(addr, reg); err != nil {
			continue
		}
		if err = t.bus.Tx(uint16(addr), nil, reply[:]); err != nil {
			err = errors.Wrapf(err, "ThunderBorg read %d from %v", reg, addr)
			continue
		}
		if reply[0] == byte(reg) {
			return reply, nil
		}
		err = errors.Wrapf(ErrBadReply, "register %d: got %d", reg, reply[0])
		time.Sleep(time.Millisecond)
	}
	return reply, err
}

func (t *ThunderBorg) read(reg Register) ([readLen]byte, error) {
	return t.readFrom(t.addr, reg)
}

func pwm(value float64) byte {
	v := math.Abs(value) * pwmMax
	if v > pwmMax {
		v = pwmMax
	}
	return byte(v)
}

func (t *ThunderBorg) SetMotorSpeed(channel motorboard.Channel, value float64) error {
	var fwd, rev Register
	switch channel {
	case motorboard.Motor1:
		fwd, rev = RegSetBFwd, RegSetBRev
	case motorboard.Motor2:
		fwd, rev = RegSetAFwd, RegSetARev
	default:
		return errors.Errorf("unknown motor channel %d", channel)
	}
	if value < 0 {
		return t.write(rev, pwm(value))
	}
	return t.write(fwd, pwm(value))
}

func (t *ThunderBorg) MotorsOff() error {
	return t.write(RegAllOff, 0)
}

func (t *ThunderBorg) SetIndicator(r, g, b bool) error {
	level := func(on bool) byte {
		if on {
			return pwmMax
		}
		return 0
	}
	// Both LEDs show the same colour.
	return t.write(RegSetLEDs, level(r), level(g), level(b), level(r), level(g), level(b))
}

func (t *ThunderBorg) SetIndicatorFollowsBattery(follow bool) error {
	return t.write(RegSetLEDBattMon, onOff(follow))
}

func (t *ThunderBorg) BatteryLimits() (min, max float64, err error) {
	reply, err := t.read(RegGetBattLimits)
	if err != nil {
		return 0, 0, err
	}
	min = float64(reply[1]) / 0xFF * voltagePinMax
	max = float64(reply[2]) / 0xFF * voltagePinMax
	return min, max, nil
}

func (t *ThunderBorg) BatteryVoltage() (float64, error) {
	reply, err := t.read(RegGetBattVolt)
	if err != nil {
		return 0, err
	}
	raw := uint16(reply[1])<<8 | uint16(reply[2])
	return float64(raw) / analogMax * voltagePinMax, nil
}

func (t *ThunderBorg) SetCommsFailsafe(enabled bool) error {
	return t.write(RegSetFailsafe, onOff(enabled))
}

func (t *ThunderBorg) CommsFailsafe() (bool, error) {
	reply, err := t.read(RegGetFailsafe)
	if err != nil {
		return false, err
	}
	return reply[1] != valueOff, nil
}

// Responds reports whether a ThunderBorg answers its ID register at addr.
func (t *ThunderBorg) Responds(addr motorboard.Address) bool {
	reply, err := t.readFrom(addr, RegGetID)
	return err == nil && reply[1] == idThunderBorg
}

// ScanBus probes every address in the 7-bit range.
func (t *ThunderBorg) ScanBus() ([]motorboard.Address, error) {
	var found []motorboard.Address
	for addr := FirstAddr; addr <= LastAddr; addr++ {
		if t.Responds(addr) {
			t.log.Debugw("Found ThunderBorg", "address", addr)
			found = append(found, addr)
		}
	}
	return found, nil
}

func onOff(b bool) byte {
	if b {
		return valueOn
	}
	return valueOff
}
