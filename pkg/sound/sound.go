// Package sound plays wav cues on the robot's speaker.
package sound

import (
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays one cue at a time from a background goroutine; a new cue cuts
// off the one playing.  Play never blocks the caller for long.
type Player struct {
	log          golog.Logger
	soundsToPlay chan string
}

func NewPlayer(log golog.Logger) *Player {
	p := &Player{
		log:          log,
		soundsToPlay: make(chan string),
	}
	go p.loop()
	return p
}

func (p *Player) loop() {
	defer func() {
		recover()
		for s := range p.soundsToPlay {
			p.log.Debugw("Unable to play sound", "path", s)
		}
	}()
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		p.log.Warnw("Failed to open speaker", "error", err)
		for s := range p.soundsToPlay {
			p.log.Debugw("Unable to play sound", "path", s)
		}
		return
	}
	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for soundToPlay := range p.soundsToPlay {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			s.Close()
			s = nil
		}

		f, err := os.Open(soundToPlay)
		if err != nil {
			p.log.Warnw("Failed to open sound", "path", soundToPlay, "error", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			p.log.Warnw("Failed to decode sound", "path", soundToPlay, "error", err)
			f.Close()
			s = nil
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}

// Play queues the cue.  An empty path is silent.
func (p *Player) Play(path string) {
	if p == nil || path == "" {
		return
	}
	defer func() {
		recover() // Don't die if the channel is already closed.
	}()
	select {
	case p.soundsToPlay <- path:
	case <-time.After(10 * time.Millisecond):
		p.log.Debugw("Timed out trying to play sound", "path", path)
	}
}

func (p *Player) Close() {
	if p == nil {
		return
	}
	close(p.soundsToPlay)
}
