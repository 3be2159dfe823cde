// Package drive turns stick positions into differential-drive motor powers.
package drive

// AxisSource is anything that reports normalised axis positions; a
// joystick.State in production.
type AxisSource interface {
	AxisValue(index int) (float64, error)
}

// ReadAxis returns the axis position in [-1, 1], negated if inverted.
func ReadAxis(src AxisSource, index int, inverted bool) (float64, error) {
	v, err := src.AxisValue(index)
	if err != nil {
		return 0, err
	}
	if inverted {
		return -v, nil
	}
	return v, nil
}
