package speakeraudio

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"

	"github.com/thewug/aurora/audio"
	"github.com/thewug/aurora/seeded"
)

// Synth returns a streamer for c at rate. Looping cues never end; the rest
// end after their audio.Sound.Duration.
func Synth(c audio.Cue, rate beep.SampleRate) (beep.Streamer, bool) {
	snd, ok := audio.Sounds[c]
	if !ok {
		return nil, false
	}
	n := rate.N(snd.Duration)

	switch c {
	case audio.CueAmbient:
		return &hum{rate: rate, freqs: []float64{110, 165}}, true
	case audio.CueWhoosh:
		return envelope(n, 0.2, 0.5, &sweep{rate: rate, from: 180, to: 1400, samples: n, noise: seeded.New("whoosh")}), true
	case audio.CuePop:
		return envelope(n, 0.05, 0.9, tone(rate, 880, n)), true
	case audio.CueConfetti:
		return envelope(n, 0.02, 0.6, &crackle{src: seeded.New("confetti"), density: 0.08}), true
	case audio.CueAssemble:
		step := rate.N(snd.Duration / 3)
		return beep.Seq(
			envelope(step, 0.1, 0.3, tone(rate, 440, step)),
			envelope(step, 0.1, 0.3, tone(rate, 554.37, step)),
			envelope(n-2*step, 0.1, 0.3, tone(rate, 659.25, n-2*step)),
		), true
	case audio.CueReveal:
		chord := beep.Mix(
			tone(rate, 523.25, n),
			tone(rate, 659.25, n),
			tone(rate, 783.99, n),
		)
		return envelope(n, 0.05, 0.6, scale(chord, 1.0/3)), true
	}
	return nil, false
}

// tone is a sine of freq Hz lasting n samples.
func tone(rate beep.SampleRate, freq float64, n int) beep.Streamer {
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return beep.Silence(n)
	}
	return beep.Take(n, sine)
}

func scale(s beep.Streamer, k float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := range samples[:n] {
			samples[i][0] *= k
			samples[i][1] *= k
		}
		return n, ok
	})
}

type env struct {
	s       beep.Streamer
	total   int
	pos     int
	attack  int
	release int
}

// envelope fades s in over the first attack fraction of total samples and
// out over the last release fraction, then ends it.
func envelope(total int, attack, release float64, s beep.Streamer) beep.Streamer {
	return &env{
		s:       s,
		total:   total,
		attack:  int(attack * float64(total)),
		release: int(release * float64(total)),
	}
}

func (e *env) Stream(samples [][2]float64) (int, bool) {
	if e.pos >= e.total {
		return 0, false
	}
	if rem := e.total - e.pos; len(samples) > rem {
		samples = samples[:rem]
	}
	n, ok := e.s.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain(e.pos + i)
		samples[i][0] *= g
		samples[i][1] *= g
	}
	e.pos += n
	return n, ok && n > 0
}

func (e *env) gain(i int) float64 {
	g := 1.0
	if e.attack > 0 && i < e.attack {
		g = float64(i) / float64(e.attack)
	}
	if start := e.total - e.release; e.release > 0 && i >= start {
		g = math.Min(g, float64(e.total-i)/float64(e.release))
	}
	return g
}

func (e *env) Err() error { return nil }

// sweep glides exponentially from one frequency to another, blended with a
// little noise.
type sweep struct {
	rate     beep.SampleRate
	from, to float64
	samples  int
	pos      int
	phase    float64
	noise    *seeded.Generator
}

func (s *sweep) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if s.pos >= s.samples {
			return i, i > 0
		}
		t := float64(s.pos) / float64(s.samples)
		freq := s.from * math.Pow(s.to/s.from, t)
		s.phase += freq / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		v := 0.7*math.Sin(2*math.Pi*s.phase) + 0.3*(s.noise.Float64()*2-1)
		samples[i][0], samples[i][1] = v, v
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// crackle is sparse random clicks, the sound of paper confetti.
type crackle struct {
	src     *seeded.Generator
	density float64
}

func (c *crackle) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := 0.0
		if c.src.Float64() < c.density {
			v = c.src.Float64()*2 - 1
		}
		samples[i][0], samples[i][1] = v, v
	}
	return len(samples), true
}

func (c *crackle) Err() error { return nil }

// hum is an endless stack of quiet sines.
type hum struct {
	rate  beep.SampleRate
	freqs []float64
	t     int
}

func (h *hum) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := 0.0
		for _, f := range h.freqs {
			v += math.Sin(2 * math.Pi * f * float64(h.t) / float64(h.rate))
		}
		v /= float64(len(h.freqs))
		samples[i][0], samples[i][1] = v, v
		h.t++
	}
	return len(samples), true
}

func (h *hum) Err() error { return nil }
