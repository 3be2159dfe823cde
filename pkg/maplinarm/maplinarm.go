// Package maplinarm talks to the Maplin (OWI-535) USB robot arm.
package maplinarm

import (
	"fmt"
	"sync"

	"github.com/google/gousb"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/mikeymonster/pkg/arm"
)

const (
	VendorID  gousb.ID = 0x1267
	ProductID gousb.ID = 0x0000

	// Vendor request, host to device.
	requestType = 0x40
	request     = 6
	value       = 0x100
	index       = 0
)

var ErrArmNotFound = errors.New("USB arm not found")

type Arm struct {
	ctx *gousb.Context
	dev *gousb.Device
}

var _ arm.Device = (*Arm)(nil)

// Open finds the first attached arm.  It returns ErrArmNotFound if there
// isn't one.
func Open() (*Arm, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		_ = ctx.Close()
		return nil, errors.Wrap(err, "failed to open USB arm")
	}
	if dev == nil {
		_ = ctx.Close()
		return nil, ErrArmNotFound
	}
	return &Arm{ctx: ctx, dev: dev}, nil
}

func (a *Arm) SendDiscreteCommand(b0, b1, b2 byte) error {
	n, err := a.dev.Control(requestType, request, value, index, []byte{b0, b1, b2})
	if err != nil {
		return errors.Wrap(err, "control transfer failed")
	}
	if n != 3 {
		return errors.Errorf("short control transfer: %d of 3 bytes", n)
	}
	return nil
}

func (a *Arm) Reset() error {
	return a.dev.Reset()
}

func (a *Arm) Close() error {
	err := a.dev.Close()
	if cerr := a.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}

func Dummy() *DummyArm {
	return &DummyArm{}
}

// DummyArm logs commands instead of sending them.
type DummyArm struct {
	mu   sync.Mutex
	Sent [][3]byte
}

func (d *DummyArm) SendDiscreteCommand(b0, b1, b2 byte) error {
	d.mu.Lock()
	d.Sent = append(d.Sent, [3]byte{b0, b1, b2})
	d.mu.Unlock()
	fmt.Printf("Dummy arm command: %d %d %d\n", b0, b1, b2)
	return nil
}

func (d *DummyArm) Reset() error {
	fmt.Println("Dummy arm reset")
	return nil
}

func (d *DummyArm) Close() error {
	return nil
}
