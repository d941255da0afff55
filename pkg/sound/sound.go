package sound

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"
)

// Player plays WAV cues on a background goroutine; a new cue cuts off the
// previous one.
type Player struct {
	soundsToPlay chan string
	log          *zap.SugaredLogger
}

func NewPlayer(log *zap.SugaredLogger) *Player {
	p := &Player{
		soundsToPlay: make(chan string),
		log:          log,
	}
	go p.loop()
	return p
}

// CuePath names the cue for an event, e.g. CuePath("/sounds", "Autonomous") is
// "/sounds/autonomous.wav".
func CuePath(dir, event string) string {
	return filepath.Join(dir, strings.ToLower(event)+".wav")
}

// Play queues a sound without blocking the caller for more than a few ms.
func (p *Player) Play(path string) {
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
	close(p.soundsToPlay)
}

func (p *Player) drain() {
	for s := range p.soundsToPlay {
		p.log.Debugw("Unable to play", "path", s)
	}
}

func (p *Player) loop() {
	defer func() {
		recover()
		p.drain()
	}()
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		p.log.Warnw("Failed to open speaker", "error", err)
		p.drain()
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
			p.log.Warnw("Failed to open sound", "error", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			p.log.Warnw("Failed to decode sound", "path", soundToPlay, "error", err)
			f.Close()
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}
