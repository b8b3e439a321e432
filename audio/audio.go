// Package audio plays the reveal's sound cues.
//
// There is no package-level player. Construct one, call Init after the
// viewer has opted in, pass it to whatever needs sound, and Dispose it when
// the session ends.
package audio

import (
	"sync"
	"time"
)

// Cue names a sound effect.
type Cue string

const (
	CueAmbient  Cue = "ambient"
	CueWhoosh   Cue = "whoosh"
	CuePop      Cue = "pop"
	CueConfetti Cue = "confetti"
	CueAssemble Cue = "assemble"
	CueReveal   Cue = "reveal"
)

// Sound describes how a cue is played.
type Sound struct {
	Volume   float64
	Loop     bool
	Duration time.Duration
}

// Sounds holds the playback settings for every known cue.
var Sounds = map[Cue]Sound{
	CueAmbient:  {Volume: 0.3, Loop: true},
	CueWhoosh:   {Volume: 0.5, Duration: 450 * time.Millisecond},
	CuePop:      {Volume: 0.6, Duration: 80 * time.Millisecond},
	CueConfetti: {Volume: 0.7, Duration: 700 * time.Millisecond},
	CueAssemble: {Volume: 0.4, Duration: 360 * time.Millisecond},
	CueReveal:   {Volume: 0.8, Duration: 1200 * time.Millisecond},
}

// Player is the minimal interface the reveal needs.
type Player interface {
	Init() error
	Dispose()
	Play(Cue) bool
	Stop(Cue)
	SetMuted(bool)
	ToggleMute() bool
	Muted() bool
	SetVolume(float64)
}

// MuteStore is told about every mute change so the caller can persist it.
type MuteStore func(muted bool)

// Nop is a silent Player. It still tracks mute state and reports it to
// OnMute.
type Nop struct {
	OnMute MuteStore

	mu     sync.Mutex
	muted  bool
	volume float64
	played []Cue
}

func NewNop(muted bool, onMute MuteStore) *Nop {
	return &Nop{muted: muted, volume: 1, OnMute: onMute}
}

func (n *Nop) Init() error { return nil }
func (n *Nop) Dispose()    {}
func (n *Nop) Stop(Cue)    {}

// Play records c and reports whether it would have been audible.
func (n *Nop) Play(c Cue) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := Sounds[c]; !ok {
		return false
	}
	n.played = append(n.played, c)
	return !n.muted
}

// Played returns the cues passed to Play, in order.
func (n *Nop) Played() []Cue {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Cue(nil), n.played...)
}

func (n *Nop) SetMuted(m bool) {
	n.mu.Lock()
	n.muted = m
	cb := n.OnMute
	n.mu.Unlock()
	if cb != nil {
		cb(m)
	}
}

func (n *Nop) ToggleMute() bool {
	m := !n.Muted()
	n.SetMuted(m)
	return m
}

func (n *Nop) Muted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.muted
}

func (n *Nop) SetVolume(v float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.volume = clamp(v)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
