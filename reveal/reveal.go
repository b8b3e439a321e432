// Package reveal drives the staged winner reveal: loading, assembly,
// reveal, celebrate and results, then on to the next pair.
//
// A Director only sequences. It emits Events to a sink and plays cues on an
// audio.Player; rendering them is left to the web page or the terminal.
package reveal

import (
	"time"

	"github.com/thewug/aurora/seeded"
)

type Stage string

const (
	StageLoading    Stage = "loading"
	StageAssembly   Stage = "assembly"
	StageReveal     Stage = "reveal"
	StageCelebrate  Stage = "celebrate"
	StageResults    Stage = "results"
	StageTransition Stage = "transition"
	StageDone       Stage = "done"
)

// Timing is the choreography of one reveal.
type Timing struct {
	AmbientDelay       time.Duration
	Loading            time.Duration
	ZoomIn             time.Duration
	AssemblyTick       time.Duration
	AssemblyStep       float64
	PopToReveal        time.Duration
	RevealToCelebrate  time.Duration
	CelebrateToResults time.Duration
	TransitionOut      time.Duration
	TransitionIn       time.Duration
}

var DefaultTiming = Timing{
	AmbientDelay:       100 * time.Millisecond,
	Loading:            3000 * time.Millisecond,
	ZoomIn:             1800 * time.Millisecond,
	AssemblyTick:       16 * time.Millisecond,
	AssemblyStep:       0.012,
	PopToReveal:        500 * time.Millisecond,
	RevealToCelebrate:  3000 * time.Millisecond,
	CelebrateToResults: 500 * time.Millisecond,
	TransitionOut:      1500 * time.Millisecond,
	TransitionIn:       1000 * time.Millisecond,
}

// ConfettiColors is the celebration palette.
var ConfettiColors = []string{"#10b981", "#059669", "#fbbf24", "#60a5fa", "#f472b6"}

const DefaultConfettiCount = 120

// Particle is one piece of confetti. X and Y are fractions of the viewport;
// VX and VY are viewports per second; Spin is degrees per second.
type Particle struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Spin  float64 `json:"spin"`
	Color string  `json:"color"`
}

// Confetti scatters n particles using draws from src only. Pass the
// presentation generator of a draw so the scatter is repeatable per seed.
func Confetti(src seeded.Source, n int) []Particle {
	ps := make([]Particle, n)
	for i := range ps {
		color, _ := seeded.Pick(ConfettiColors, src)
		ps[i] = Particle{
			X:     seeded.Range(0, 1, src),
			Y:     seeded.Range(-0.2, 0, src),
			VX:    seeded.Range(-0.3, 0.3, src),
			VY:    seeded.Range(0.4, 1.2, src),
			Spin:  seeded.Range(-360, 360, src),
			Color: color,
		}
	}
	return ps
}

// Clock abstracts waiting so tests can run a reveal instantly.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
