package drive

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

const epsilon = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestComputeMaxPower(t *testing.T) {
	if p := ComputeMaxPower(12.0, 11.4); !near(p, 0.95) {
		t.Errorf("12V in, 11.4V out: got %v, expected 0.95", p)
	}
	if p := ComputeMaxPower(12.0, 13.0); p != 1.0 {
		t.Errorf("Output above input should clamp to 1, got %v", p)
	}
	if p := ComputeMaxPower(12.0, 12.0); p != 1.0 {
		t.Errorf("Equal voltages should give 1, got %v", p)
	}
}

func TestNewPowerProfileRejectsBadVoltages(t *testing.T) {
	for _, v := range [][2]float64{{0, 11.4}, {-12, 11.4}, {12, 0}, {math.NaN(), 11.4}} {
		if _, err := NewPowerProfile(v[0], v[1]); !errors.Is(err, ErrInvalidVoltage) {
			t.Errorf("NewPowerProfile(%v, %v): expected ErrInvalidVoltage, got %v", v[0], v[1], err)
		}
	}
	p, err := NewPowerProfile(12, 11.4)
	if err != nil {
		t.Fatal(err)
	}
	if !near(p.MaxPower, 0.95) {
		t.Errorf("Unexpected max power %v", p.MaxPower)
	}
}

type fakeAxes map[int]float64

func (f fakeAxes) AxisValue(index int) (float64, error) {
	v, ok := f[index]
	if !ok {
		return 0, errors.New("no axis")
	}
	return v, nil
}

func TestReadAxis(t *testing.T) {
	axes := fakeAxes{1: 0.25}
	if v, err := ReadAxis(axes, 1, false); err != nil || v != 0.25 {
		t.Errorf("Got %v, %v", v, err)
	}
	if v, err := ReadAxis(axes, 1, true); err != nil || v != -0.25 {
		t.Errorf("Inverted: got %v, %v", v, err)
	}
	if _, err := ReadAxis(axes, 2, false); err == nil {
		t.Error("Expected error for missing axis")
	}
}

func TestMixStraightLine(t *testing.T) {
	m := Mixer{MaxPower: 0.95, SlowFactor: 0.5}
	for _, h := range []float64{0, 0.03, -0.03, Deadzone, -Deadzone} {
		for v := -1.0; v <= 1.0; v += 0.125 {
			c := m.Mix(h, v, false)
			if c.Left != -v || c.Right != -v {
				t.Errorf("Mix(%v, %v) = %v; expected both sides %v", h, v, c, -v)
			}
		}
	}
}

func TestMix(t *testing.T) {
	const maxPower = 0.95
	m := Mixer{MaxPower: maxPower, SlowFactor: 0.5}
	for _, test := range []struct {
		name            string
		horizontal      float64
		vertical        float64
		slow            bool
		expectedL, expR float64
	}{
		{"centred", 0, 0, false, 0, 0},
		{"full forward", 0, -1, false, 1, 1},
		{"full reverse", 0, 1, false, -1, -1},
		{"pivot left", -0.5, 0, false, -0.5 * maxPower, 0.5 * maxPower},
		{"pivot right", 0.5, 0.04, false, 0.5 * maxPower, -0.5 * maxPower},
		{"forward turning right", 0.3, -1, false, 1, 0.4},
		{"forward turning left", -0.3, -1, false, 0.4, 1},
		{"reverse turning right", 0.25, 0.5, false, -0.5, -0.25},
		{"hard right while moving flips inner wheel", 1, -1, false, 1, -1},
		{"slow forward", 0, -1, true, 0.5, 0.5},
		{"slow pivot", -0.5, 0, true, -0.25 * maxPower, 0.25 * maxPower},
		{"slow turning right", 0.3, -1, true, 0.5, 0.2},
		{"moving at deadzone edge still turns", 0.3, -Deadzone, false, Deadzone, Deadzone * 0.4},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := m.Mix(test.horizontal, test.vertical, test.slow)
			if !near(c.Left, test.expectedL) || !near(c.Right, test.expR) {
				t.Errorf("Mix(%v, %v, %v) = %v; expected l=%v r=%v",
					test.horizontal, test.vertical, test.slow, c, test.expectedL, test.expR)
			}
		})
	}
}

func TestMixSlowModeScalesEveryBranch(t *testing.T) {
	m := Mixer{MaxPower: 1, SlowFactor: 0.3}
	for _, in := range [][2]float64{{0, -0.8}, {-0.6, 0}, {0.6, 0.01}, {-0.4, -0.7}, {0.4, 0.7}} {
		fast := m.Mix(in[0], in[1], false)
		slow := m.Mix(in[0], in[1], true)
		if !near(slow.Left, fast.Left*0.3) || !near(slow.Right, fast.Right*0.3) {
			t.Errorf("Mix(%v, %v): slow %v is not 0.3 x %v", in[0], in[1], slow, fast)
		}
	}
}

func TestCommandClamp(t *testing.T) {
	c := Command{Left: 1.2, Right: -3}.Clamp(0.95)
	if c.Left != 0.95 || c.Right != -0.95 {
		t.Errorf("Unexpected clamp result %v", c)
	}
	c = Command{Left: 0.5, Right: -0.5}.Clamp(0.95)
	if c.Left != 0.5 || c.Right != -0.5 {
		t.Errorf("In-range values should pass through, got %v", c)
	}
}
