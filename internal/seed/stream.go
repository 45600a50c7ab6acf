// Package seed derives independent deterministic random streams from a base
// seed string and a label path. The same (seed, labels...) always yields the
// same sequence no matter how many values other streams have consumed.
package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// labelSep separates the seed and each label before hashing so that
// ("ab", "c") and ("a", "bc") never collide.
const labelSep = "\x1f"

// Stream is a named, independently seeded pseudo-random generator.
type Stream struct {
	r *rand.Rand
}

// Derive returns the stream for seed and labels, or nil when seed is empty.
// Callers that get nil must fall back to ambient entropy.
func Derive(seed string, labels ...any) *Stream {
	if seed == "" {
		return nil
	}
	state := hashKey(seed, labels)
	return &Stream{r: rand.New(rand.NewPCG(uint64(state), uint64(mix32(state^0x9e3779b9))))}
}

// FromRand wraps an existing generator. Used for ambient (unseeded) streams.
func FromRand(r *rand.Rand) *Stream {
	return &Stream{r: r}
}

// hashKey folds the seed and labels into a 32-bit state using FNV-1a
// followed by a murmur-style finalizer.
func hashKey(seed string, labels []any) uint32 {
	var b strings.Builder
	b.WriteString(seed)
	for _, l := range labels {
		b.WriteString(labelSep)
		b.WriteString(fmt.Sprint(l))
	}

	h := uint32(2166136261)
	for _, c := range []byte(b.String()) {
		h ^= uint32(c)
		h *= 16777619
	}
	return mix32(h)
}

// mix32 avalanches a 32-bit value.
func mix32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 { return s.r.Float64() }

// IntN returns a value in [0, n). Returns 0 for n <= 0.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// Range returns a value in [lo, hi).
func (s *Stream) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// Chance reports true with probability p.
func (s *Stream) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.r.Float64() < p
}

// Angle returns a uniform angle in [0, 2π).
func (s *Stream) Angle() float64 { return s.r.Float64() * 2 * math.Pi }

// NormFloat64 returns a standard normal sample.
func (s *Stream) NormFloat64() float64 { return s.r.NormFloat64() }

// Poisson samples a Poisson-distributed count with the given mean.
// Knuth's method for small means, a rounded normal approximation above 30.
func (s *Stream) Poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 30 {
		n := int(math.Round(mean + math.Sqrt(mean)*s.r.NormFloat64()))
		if n < 0 {
			return 0
		}
		return n
	}
	limit := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= s.r.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

// Rand exposes the underlying generator.
func (s *Stream) Rand() *rand.Rand { return s.r }
