package drive

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Deadzone is the stick deflection below which an axis counts as centred.
const Deadzone = 0.05

const DefaultSlowFactor = 0.5

// Command is a pair of signed duty cycles.
type Command struct {
	Left, Right float64
}

func (c Command) String() string {
	return fmt.Sprintf("l=%.3f r=%.3f", c.Left, c.Right)
}

// Clamp limits both sides to [-maxPower, maxPower].
func (c Command) Clamp(maxPower float64) Command {
	return Command{
		Left:  clamp(c.Left, -maxPower, maxPower),
		Right: clamp(c.Right, -maxPower, maxPower),
	}
}

// Scale multiplies both sides by f.
func (c Command) Scale(f float64) Command {
	return Command{Left: c.Left * f, Right: c.Right * f}
}

type Mixer struct {
	MaxPower   float64
	SlowFactor float64
}

// Mix converts steer (horizontal) and throttle (vertical, up is negative)
// into wheel powers.
//
// Steering while stationary pivots in place at the requested rate.  Steering
// while moving only slows the inner wheel, by 1+2h on the left or 1-2h on
// the right, so the turn tightens without the outer wheel losing power.
// Both deadzone bounds are exclusive.
func (m Mixer) Mix(horizontal, vertical float64, slow bool) Command {
	left := -vertical
	right := -vertical

	stationary := vertical > -Deadzone && vertical < Deadzone
	if horizontal < -Deadzone || horizontal > Deadzone {
		if stationary {
			left = horizontal * m.MaxPower
			right = -horizontal * m.MaxPower
		} else if horizontal < 0 {
			left *= 1.0 + 2.0*horizontal
		} else {
			right *= 1.0 - 2.0*horizontal
		}
	}

	if slow {
		left *= m.SlowFactor
		right *= m.SlowFactor
	}
	return Command{Left: left, Right: right}
}

func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
