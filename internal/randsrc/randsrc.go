// Package randsrc provides the injectable random source shared by agents,
// the market feed and the simulation driver.
package randsrc

import "math/rand/v2"

// Source is satisfied by *rand.Rand from math/rand/v2.
type Source interface {
	Float64() float64
	NormFloat64() float64
	IntN(n int) int
	Perm(n int) []int
}

// New returns a PCG-backed source. Equal seeds give equal streams.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Normal draws from N(mean, stddev).
func Normal(src Source, mean, stddev float64) float64 {
	return mean + stddev*src.NormFloat64()
}

// IntRange draws uniformly from [lo, hi], both inclusive.
func IntRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Uniform draws uniformly from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
