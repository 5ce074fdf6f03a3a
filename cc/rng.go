package cc

import "math/rand"

// Rand is the single seedable pseudo-random source threaded explicitly
// through the simulator (spec.md §5): back-offs, channel-selector
// tie-breaks, propagation shadowing, placement sampling, and jittered
// application starts all draw from one instance passed in by the caller,
// never a package-level global.
type Rand struct {
	r *rand.Rand
}

// NewRand seeds a new Rand from a fixed integer seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform value in [0, 1).
func (r *Rand) Float64() float64 {
	return r.r.Float64()
}

// UniformFloat returns a uniform value in [lo, hi].
func (r *Rand) UniformFloat(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.r.Float64()*(hi-lo)
}

// Intn returns a uniform integer in [0, n).
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.Intn(n)
}

// NormFloat64 returns a standard-normal sample, used for propagation
// shadowing.
func (r *Rand) NormFloat64() float64 {
	return r.r.NormFloat64()
}
