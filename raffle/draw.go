// Package raffle pairs winners with prizes.
//
// Draw is not random. It is a pure function of the seed and the two candidate
// lists, so every viewer who opens the reveal with the same seed sees the same
// winner take the same prize, today, tomorrow, and on any machine.
package raffle

import (
	"fmt"
	"time"

	"github.com/thewug/aurora/seeded"
)

// PresentationSuffix is appended to the seed to build the generator handed
// to presentation code.
const PresentationSuffix = "-animation"

// Result is the outcome of a Draw.
type Result[W, P any] struct {
	Seed            string
	Winner          W
	Prize           P
	ShuffledWinners []W
	ShuffledPrizes  []P

	// Presentation is seeded independently of the selection. Drawing from it
	// never changes Winner or Prize.
	Presentation *seeded.Generator
}

// Pair is one winner matched with one prize.
type Pair[W, P any] struct {
	Winner W
	Prize  P
}

// Draw deterministically selects a winner and a prize for seed.
//
// Both lists are shuffled from a single generator, winners first, then
// prizes from the continuation of the same stream. The order matters:
// shuffling prizes first, or using two generators, yields different pairs.
//
// An empty seed or an empty list is rejected with an error wrapping
// seeded.ErrInvalidArgument.
func Draw[W, P any](seed string, winners []W, prizes []P) (*Result[W, P], error) {
	if seed == "" {
		return nil, fmt.Errorf("raffle: empty seed: %w", seeded.ErrInvalidArgument)
	}
	if len(winners) == 0 {
		return nil, fmt.Errorf("raffle: no winners: %w", seeded.ErrInvalidArgument)
	}
	if len(prizes) == 0 {
		return nil, fmt.Errorf("raffle: no prizes: %w", seeded.ErrInvalidArgument)
	}

	g := seeded.New(seed)
	sw := seeded.Shuffle(winners, g)
	sp := seeded.Shuffle(prizes, g)

	return &Result[W, P]{
		Seed:            seed,
		Winner:          sw[0],
		Prize:           sp[0],
		ShuffledWinners: sw,
		ShuffledPrizes:  sp,
		Presentation:    newPresentation(seed),
	}, nil
}

func newPresentation(seed string) *seeded.Generator {
	return seeded.New(seed + PresentationSuffix)
}

// Pairs matches the shuffled lists position by position, stopping at the
// shorter one. The first pair is always (Winner, Prize).
func (r *Result[W, P]) Pairs() []Pair[W, P] {
	n := len(r.ShuffledWinners)
	if len(r.ShuffledPrizes) < n {
		n = len(r.ShuffledPrizes)
	}
	pairs := make([]Pair[W, P], n)
	for i := range pairs {
		pairs[i] = Pair[W, P]{Winner: r.ShuffledWinners[i], Prize: r.ShuffledPrizes[i]}
	}
	return pairs
}

// DailySeed builds the seed for the day containing t, e.g.
// "aurora-Mon Jan 01 2024". The date part matches JavaScript's
// Date.toDateString.
func DailySeed(prefix string, t time.Time) string {
	return prefix + "-" + t.Format("Mon Jan 02 2006")
}
