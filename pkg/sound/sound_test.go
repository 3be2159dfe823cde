package sound

import (
	"testing"

	"github.com/edaniels/golog"
)

func TestPlayQueuesCue(t *testing.T) {
	p := &Player{log: golog.NewTestLogger(t), soundsToPlay: make(chan string, 1)}
	p.Play("")
	p.Play("/sounds/start.wav")
	if s := <-p.soundsToPlay; s != "/sounds/start.wav" {
		t.Errorf("Expected the cue to be queued, got %q", s)
	}
}

func TestPlayDoesNotBlock(t *testing.T) {
	p := &Player{log: golog.NewTestLogger(t), soundsToPlay: make(chan string)}
	// Nobody is reading; Play gives up.
	p.Play("/sounds/start.wav")
	p.Close()
	// Playing after close is ignored.
	p.Play("/sounds/start.wav")
}

func TestNilPlayer(t *testing.T) {
	var p *Player
	p.Play("/sounds/start.wav")
	p.Close()
}
