// Package speakeraudio plays reveal cues on the system speaker with beep.
// It needs cgo and an audio library at build time; import it only from
// binaries that make sound.
package speakeraudio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/thewug/aurora/audio"
)

const defaultSampleRate = beep.SampleRate(44100)

type Config struct {
	SampleRate beep.SampleRate
	Muted      bool
	Volume     float64
	OnMute     audio.MuteStore
}

// Beep plays synthesized cues through the system speaker.
//
// If Init cannot open an audio device the player stays disabled: Play
// returns false and mute state is still tracked.
type Beep struct {
	cfg  Config
	rate beep.SampleRate

	mu          sync.Mutex
	mixer       *beep.Mixer
	master      *effects.Volume
	ambient     *beep.Ctrl
	initialized bool
	disabled    bool
	muted       bool
	volume      float64
}

func NewBeep(cfg Config) *Beep {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Volume == 0 {
		cfg.Volume = 1
	}
	mixer := &beep.Mixer{}
	b := &Beep{
		cfg:    cfg,
		rate:   cfg.SampleRate,
		mixer:  mixer,
		muted:  cfg.Muted,
		volume: clamp(cfg.Volume),
	}
	b.master = &effects.Volume{Streamer: mixer, Base: 2}
	b.applyGain()
	return b
}

// Init opens the speaker. A failure disables the player and is returned for
// logging; it is never fatal.
func (b *Beep) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized || b.disabled {
		return nil
	}

	if err := speaker.Init(b.rate, b.rate.N(100*time.Millisecond)); err != nil {
		b.disabled = true
		return fmt.Errorf("audio: speaker unavailable: %w", err)
	}

	speaker.Play(b.master)
	b.initialized = true
	return nil
}

// Dispose stops every sound and releases the speaker.
func (b *Beep) Dispose() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	speaker.Lock()
	b.mixer.Clear()
	b.ambient = nil
	speaker.Unlock()
	speaker.Close()
	b.initialized = false
}

func (b *Beep) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// Play starts c. It reports whether anything will be heard.
func (b *Beep) Play(c audio.Cue) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized || b.muted {
		return false
	}
	snd, ok := audio.Sounds[c]
	if !ok {
		return false
	}
	if snd.Loop && b.ambient != nil && !b.ambient.Paused {
		return true
	}

	s, ok := Synth(c, b.rate)
	if !ok {
		return false
	}
	v := &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(snd.Volume)}

	speaker.Lock()
	defer speaker.Unlock()
	if snd.Loop {
		ctrl := &beep.Ctrl{Streamer: v}
		b.ambient = ctrl
		b.mixer.Add(ctrl)
		return true
	}
	b.mixer.Add(v)
	return true
}

// Stop silences a looping cue. One-shot cues finish on their own.
func (b *Beep) Stop(c audio.Cue) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c != audio.CueAmbient || b.ambient == nil {
		return
	}
	speaker.Lock()
	b.ambient.Paused = true
	b.ambient = nil
	speaker.Unlock()
}

func (b *Beep) SetMuted(m bool) {
	b.mu.Lock()
	b.muted = m
	b.applyGain()
	cb := b.cfg.OnMute
	b.mu.Unlock()

	if cb != nil {
		cb(m)
	}
}

func (b *Beep) ToggleMute() bool {
	m := !b.Muted()
	b.SetMuted(m)
	return m
}

func (b *Beep) Muted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.muted
}

func (b *Beep) SetVolume(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = clamp(v)
	b.applyGain()
}

// applyGain pushes mute and volume into the master stage. Callers hold b.mu.
func (b *Beep) applyGain() {
	silent := b.muted || b.volume == 0
	vol := 0.0
	if !silent {
		vol = math.Log2(b.volume)
	}
	if b.initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	b.master.Silent = silent
	b.master.Volume = vol
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
