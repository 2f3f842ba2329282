package ranking

import "math"

// Linear congruential generator constants. They are fixed so that a given
// seed always yields the same order; do not use this generator for anything
// security sensitive.
const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// LCG is a small deterministic pseudo-random generator.
type LCG struct {
	state int64
}

// NewLCG reduces seed into [0, lcgModulus) so every later state fits the
// multiply without overflow.
func NewLCG(seed int64) *LCG {
	return &LCG{state: (seed%lcgModulus + lcgModulus) % lcgModulus}
}

// Next advances the generator and returns a draw in [0, 1).
func (g *LCG) Next() float64 {
	g.state = (g.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(g.state) / lcgModulus
}

// Shuffle returns a Fisher-Yates permutation of items driven by an LCG seeded
// with seed. The input slice is left untouched.
func Shuffle[T any](seed int64, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}

	rng := NewLCG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(rng.Next() * float64(i+1)))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
