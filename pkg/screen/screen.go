// Package screen draws the rover's status on a small RGB565 framebuffer.
package screen

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/fogleman/gg"

	"github.com/tigerbot-team/mikeymonster/pkg/rcmode"
)

const (
	Size = 128

	refreshInterval = 500 * time.Millisecond
)

// Panel keeps the latest status and redraws it from its own loop.
type Panel struct {
	log golog.Logger

	lock   sync.Mutex
	status rcmode.Status
}

var _ rcmode.StatusSink = (*Panel)(nil)

func NewPanel(log golog.Logger) *Panel {
	return &Panel{log: log}
}

func (p *Panel) UpdateStatus(s rcmode.Status) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.status = s
}

func (p *Panel) current() rcmode.Status {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.status
}

// Loop redraws the framebuffer at device until ctx is cancelled, then blanks
// it.  A missing screen is logged and ignored.
func (p *Panel) Loop(ctx context.Context, device string) {
	f, err := os.OpenFile(device, os.O_RDWR, 0666)
	if err != nil {
		p.log.Infow("Failed to open screen, ignoring", "device", device, "error", err)
		return
	}
	defer f.Close()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var blank [Size * Size * 2]byte
			_ = writeFrame(f, blank[:])
			return
		case <-ticker.C:
		}
		buf := Encode(Render(p.current()))
		if err := writeFrame(f, buf); err != nil {
			p.log.Warnw("Screen failure", "error", err)
			return
		}
	}
}

func writeFrame(f io.WriteSeeker, buf []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	// The panel driver drops data if a frame is written in one go.
	for i := 0; i < Size; i++ {
		if _, err := f.Write(buf[i*Size*2 : (i+1)*Size*2]); err != nil {
			return err
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

// Render draws the battery gauge, drive bars and failsafe/light flags.
func Render(s rcmode.Status) image.Image {
	dc := gg.NewContext(Size, Size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGBA(1, 0.9, 0, 1)

	dc.DrawString("BATT", 4, 12)
	drawBatteryBar(dc, s.Battery)

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString("DRIVE", 60, 12)
	drawDriveBar(dc, 64, s.Drive.Left)
	drawDriveBar(dc, 96, s.Drive.Right)

	drawFlag(dc, 4, 118, "FS", s.Failsafe)
	if s.Arm {
		drawFlag(dc, 40, 118, "LIGHT", s.Light)
	}
	return dc.Image()
}

// charge is how far the current voltage is between the board's battery
// limits.
func charge(b rcmode.BatteryReport) float64 {
	if b.Maximum <= b.Minimum {
		return 0
	}
	c := (b.Current - b.Minimum) / (b.Maximum - b.Minimum)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func drawBatteryBar(dc *gg.Context, b rcmode.BatteryReport) {
	switch {
	case b.Current < b.Minimum:
		dc.SetRGBA(1, 0.2, 0, 1)
	case b.Current < b.HalfWay():
		dc.SetRGBA(1, 0.9, 0, 1)
	default:
		dc.SetRGBA(0.2, 1, 0.2, 1)
	}
	c := charge(b)
	dc.DrawRectangle(4, 90, 30, 10)
	for n := 2; n < 13; n++ {
		if c >= (float64(n) / 13) {
			dc.DrawRectangle(6, 95-float64(n)*5, 26, 3)
		}
	}
	dc.Fill()
	dc.DrawString(fmt.Sprintf("%.1fv", b.Current), 2, 112)
}

// drawDriveBar draws a bar up from the centre line for forward power and down
// for reverse.
func drawDriveBar(dc *gg.Context, x, power float64) {
	const centre, half = 60, 40
	if power > 1 {
		power = 1
	} else if power < -1 {
		power = -1
	}
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawLine(x-4, centre, x+22, centre)
	dc.Stroke()
	h := power * half
	if h >= 0 {
		dc.DrawRectangle(x, centre-h, 18, h)
	} else {
		dc.DrawRectangle(x, centre, 18, -h)
	}
	dc.Fill()
}

func drawFlag(dc *gg.Context, x, y float64, label string, on bool) {
	if on {
		dc.SetRGBA(0.2, 1, 0.2, 1)
	} else {
		dc.SetRGBA(0.4, 0.4, 0.4, 1)
	}
	dc.DrawString(label, x, y)
}

// Encode converts the image to the panel's rotated RGB565 layout.
func Encode(img image.Image) []byte {
	buf := make([]byte, Size*Size*2)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(Size-1-y)*2+x*Size*2+1] = (rb << 3) | (gb >> 3)
			buf[(Size-1-y)*2+x*Size*2] = bb | (gb << 5)
		}
	}
	return buf
}
