// Package random provides the uniform, exponential-with-cutoff, and
// isotropic-direction draws the photon transport kernel needs, as
// independent per-thread streams.
package random

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/dustkit/geom"
)

// goldenRatio64 mixes a thread index into a global seed so each worker's
// stream is independent yet reproducible for a given (seed, threadID) pair.
const goldenRatio64 = 0x9e3779b97f4a7c15

// Source is a single thread's random stream. A Source must not be shared
// across goroutines; the kernel creates one per worker.
type Source struct {
	rng    *rand.Rand
	cumBuf []float64 // reused cumulative-sum scratch for Categorical
}

// New builds a math/rand stream seeded from the given global seed mixed
// with the thread index. Two Sources built from the same (seed, threadID)
// draw identically.
func New(seed int64, threadID int) *Source {
	mixed := seed ^ int64(uint64(threadID+1)*goldenRatio64)
	return &Source{rng: rand.New(rand.NewSource(mixed))}
}

// Uniform draws from [0, 1).
func (s *Source) Uniform() float64 {
	return distuv.Uniform{Min: 0, Max: 1, Src: s.rng}.Rand()
}

// ExponCutoff draws from an Exp(1) distribution truncated to [0, tauMax]
// via inverse-CDF sampling: a single uniform draw maps directly to a
// truncated-exponential sample, so no rejection loop is needed.
func (s *Source) ExponCutoff(tauMax float64) float64 {
	if tauMax <= 0 {
		return 0
	}
	u := s.Uniform()
	// 1 - exp(-tauMax) computed via Expm1 to keep precision for small tauMax.
	tail := -math.Expm1(-tauMax)
	if tail <= 0 {
		return 0
	}
	return -math.Log1p(-u * tail)
}

// IsotropicDirection draws a direction uniformly distributed over the unit
// sphere.
func (s *Source) IsotropicDirection() geom.Vector {
	cosTheta := 2*s.Uniform() - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * s.Uniform()
	return geom.New(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// Categorical picks an index in [0, len(weights)) with probability
// proportional to weights[i]. Returns -1 if all weights are zero or the
// slice is empty.
func (s *Source) Categorical(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	if cap(s.cumBuf) < len(weights) {
		s.cumBuf = make([]float64, len(weights))
	}
	cum := s.cumBuf[:len(weights)]
	floats.CumSum(cum, weights)

	total := cum[len(cum)-1]
	if total <= 0 {
		return -1
	}
	target := s.Uniform() * total
	idx := sort.Search(len(cum), func(i int) bool { return cum[i] > target })
	if idx >= len(cum) {
		idx = len(cum) - 1
	}
	return idx
}
