package reveal

import (
	"context"
	"sync"
	"time"

	"github.com/thewug/aurora/audio"
	"github.com/thewug/aurora/raffle"
	"github.com/thewug/aurora/seeded"
)

// Event is one visible step of the reveal.
type Event[W, P any] struct {
	Stage    Stage      `json:"stage"`
	Index    int        `json:"index"`
	Total    int        `json:"total"`
	Winner   W          `json:"winner"`
	Prize    P          `json:"prize"`
	Progress float64    `json:"progress"`
	Zoom     int        `json:"zoom"`
	Last     bool       `json:"last"`
	Confetti []Particle `json:"confetti,omitempty"`
}

type Options struct {
	Timing        Timing
	Clock         Clock
	ReducedMotion bool
	ConfettiCount int
}

type Director[W, P any] struct {
	pairs  []raffle.Pair[W, P]
	jitter seeded.Source
	player audio.Player
	sink   func(Event[W, P])
	opts   Options

	next chan struct{}

	mu    sync.Mutex
	index int
	stage Stage
}

// NewDirector prepares a reveal of every pair in r. A nil player is
// replaced by a silent one.
func NewDirector[W, P any](r *raffle.Result[W, P], player audio.Player, opts Options, sink func(Event[W, P])) *Director[W, P] {
	if player == nil {
		player = audio.NewNop(false, nil)
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming
	}
	if opts.ConfettiCount == 0 {
		opts.ConfettiCount = DefaultConfettiCount
	}
	return &Director[W, P]{
		pairs:  r.Pairs(),
		jitter: r.Presentation,
		player: player,
		sink:   sink,
		opts:   opts,
		next:   make(chan struct{}, 1),
	}
}

// Next asks for the following pair. It only counts while the results are
// showing; at any other stage, or once already asked, it is ignored and
// reports false. Otherwise it reports whether another pair follows; on the
// last pair the reveal finishes.
func (d *Director[W, P]) Next() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stage != StageResults {
		return false
	}
	d.stage = ""
	select {
	case d.next <- struct{}{}:
	default:
	}
	return d.index < len(d.pairs)-1
}

// Index returns the position of the pair being revealed.
func (d *Director[W, P]) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Run plays the reveal until the last pair is dismissed or ctx ends.
func (d *Director[W, P]) Run(ctx context.Context) error {
	defer d.player.Stop(audio.CueAmbient)
	t := d.opts.Timing

	d.emit(StageLoading, 0, 0, nil)
	if err := d.wait(ctx, t.AmbientDelay); err != nil {
		return err
	}
	d.player.Play(audio.CueAmbient)
	if err := d.wait(ctx, t.Loading-t.AmbientDelay); err != nil {
		return err
	}
	d.player.Play(audio.CueWhoosh)
	d.emit(StageLoading, 0, 1, nil)
	if err := d.wait(ctx, t.ZoomIn); err != nil {
		return err
	}

	for {
		if err := d.revealOne(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.next:
		}

		if d.Index() >= len(d.pairs)-1 {
			d.emit(StageDone, 1, 0, nil)
			return nil
		}

		d.player.Play(audio.CueWhoosh)
		d.emit(StageTransition, 1, 3, nil)
		if err := d.wait(ctx, t.TransitionOut); err != nil {
			return err
		}
		d.mu.Lock()
		d.index++
		d.mu.Unlock()
		d.emit(StageTransition, 0, 0, nil)
		if err := d.wait(ctx, t.TransitionIn); err != nil {
			return err
		}
	}
}

// revealOne runs assembly through results for the current pair.
func (d *Director[W, P]) revealOne(ctx context.Context) error {
	t := d.opts.Timing

	d.player.Play(audio.CueAssemble)
	if d.opts.ReducedMotion {
		d.emit(StageAssembly, 1, 1, nil)
	} else {
		progress := 0.0
		d.emit(StageAssembly, progress, 1, nil)
		for progress < 1 {
			if err := d.wait(ctx, t.AssemblyTick); err != nil {
				return err
			}
			progress += t.AssemblyStep
			d.emit(StageAssembly, progress, 1, nil)
		}
	}

	d.player.Play(audio.CuePop)
	if err := d.wait(ctx, t.PopToReveal); err != nil {
		return err
	}
	d.player.Play(audio.CueReveal)
	d.emit(StageReveal, 1, 2, nil)
	if err := d.wait(ctx, t.RevealToCelebrate); err != nil {
		return err
	}

	d.player.Play(audio.CueConfetti)
	var confetti []Particle
	if !d.opts.ReducedMotion {
		confetti = Confetti(d.jitter, d.opts.ConfettiCount)
	}
	d.emit(StageCelebrate, 1, 3, confetti)
	if err := d.wait(ctx, t.CelebrateToResults); err != nil {
		return err
	}
	d.emit(StageResults, 1, 3, nil)
	return nil
}

func (d *Director[W, P]) wait(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.opts.Clock.After(dur):
		return nil
	}
}

func (d *Director[W, P]) emit(stage Stage, progress float64, zoom int, confetti []Particle) {
	if progress > 1 {
		progress = 1
	}
	d.mu.Lock()
	i := d.index
	d.stage = stage
	d.mu.Unlock()

	p := d.pairs[i]
	d.sink(Event[W, P]{
		Stage:    stage,
		Index:    i,
		Total:    len(d.pairs),
		Winner:   p.Winner,
		Prize:    p.Prize,
		Progress: progress,
		Zoom:     zoom,
		Last:     i == len(d.pairs)-1,
		Confetti: confetti,
	})
}
