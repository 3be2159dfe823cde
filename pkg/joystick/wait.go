package joystick

import (
	"context"
	"time"
)

// Opener opens the joystick device; NewJoystick in production.
type Opener func(device string) (*Joystick, error)

// WaitFor retries open until the joystick appears or ctx is cancelled.
// onMissing is called after every failed attempt, before sleeping.
func WaitFor(ctx context.Context, device string, retryInterval time.Duration, open Opener, onMissing func(error)) (*Joystick, error) {
	if open == nil {
		open = NewJoystick
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		j, err := open(device)
		if err == nil {
			return j, nil
		}
		if onMissing != nil {
			onMissing(err)
		}
		timer.Reset(retryInterval)
	}
}

// Pump reads events into the channel until the device fails or ctx is
// cancelled.  The channel is closed on return; a closed channel is the
// session's Quit signal.
func Pump(ctx context.Context, j *Joystick, events chan<- *Event) error {
	defer close(events)
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			return err
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}
