// Package seeded provides a string-seeded pseudo-random generator and the
// shuffle and pick helpers built on it.
//
// # Determinism
//
// The generator is ARC4 keyed by the seed, with the first 256 keystream
// bytes dropped. It is the same generator the seedrandom JavaScript library
// uses by default, so a given seed yields the same sequence of floats here as
// it does in a browser. Seeds are mixed as UTF-16 code units.
package seeded

import (
	"errors"
	"unicode/utf16"
)

// ErrInvalidArgument is returned when a helper is handed input it cannot
// draw from, such as an empty list.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	width        = 256
	mask         = width - 1
	chunks       = 6
	startdenom   = float64(1 << (8 * chunks))
	significance = float64(1 << 52)
	overflow     = significance * 2
)

// Source is anything that yields floats in [0, 1).
type Source interface {
	Float64() float64
}

// Generator is a deterministic stream of floats in [0, 1).
// A Generator is not safe for concurrent use.
type Generator struct {
	s    [width]byte
	i, j byte
}

// New returns a Generator seeded by seed. The empty string is a valid seed.
func New(seed string) *Generator {
	key := mixKey(seed)
	if len(key) == 0 {
		key = []int{0}
	}

	g := &Generator{}
	for i := 0; i < width; i++ {
		g.s[i] = byte(i)
	}

	j := 0
	for i := 0; i < width; i++ {
		t := g.s[i]
		j = mask & (j + key[i%len(key)] + int(t))
		g.s[i] = g.s[j]
		g.s[j] = t
	}

	g.bytes(width)
	return g
}

// mixKey folds the seed into at most 256 key bytes.
func mixKey(seed string) []int {
	var key []int
	smear := 0
	for j, unit := range utf16.Encode([]rune(seed)) {
		k := j & mask
		if k >= len(key) {
			key = append(key, 0)
		}
		smear ^= key[k] * 19
		key[k] = mask & (smear + int(unit))
	}
	return key
}

// bytes advances the keystream by count bytes and returns them packed
// big-endian.
func (g *Generator) bytes(count int) uint64 {
	var r uint64
	i, j := g.i, g.j
	for ; count > 0; count-- {
		i++
		t := g.s[i]
		j += t
		g.s[i] = g.s[j]
		g.s[j] = t
		r = r*width + uint64(g.s[g.s[i]+g.s[j]])
	}
	g.i, g.j = i, j
	return r
}

// Float64 returns the next value in [0, 1).
func (g *Generator) Float64() float64 {
	n := float64(g.bytes(chunks))
	d := startdenom
	x := uint64(0)
	for n < significance {
		n = (n + float64(x)) * width
		d *= width
		x = g.bytes(1)
	}
	for n >= overflow {
		n /= 2
		d /= 2
		x >>= 1
	}
	return (n + float64(x)) / d
}

// Intn returns floor(Float64() * n). n must be positive.
func (g *Generator) Intn(n int) int {
	return index(g, n)
}

func index(src Source, n int) int {
	return int(src.Float64() * float64(n))
}

// Shuffle returns a Fisher-Yates permutation of list driven by src. The
// input is not modified. src is drawn exactly len(list)-1 times.
func Shuffle[T any](list []T, src Source) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i := len(out) - 1; i > 0; i-- {
		j := index(src, i+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Pick returns one element of list using a single draw from src.
func Pick[T any](list []T, src Source) (T, error) {
	var zero T
	if len(list) == 0 {
		return zero, ErrInvalidArgument
	}
	return list[index(src, len(list))], nil
}

// Range returns a value in [min, max) using a single draw from src.
func Range(min, max float64, src Source) float64 {
	return min + src.Float64()*(max-min)
}
