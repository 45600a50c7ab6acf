// Package noise provides coherent noise for organic distortion of the terrain.
// Value noise is stateless and unseeded; callers seed it by offsetting the
// sample coordinates with a value drawn from a seed stream.
package noise

import "math"

// Hash2 returns a stable hash for 2-D lattice coordinates.
func Hash2(x, y int32) uint32 {
	h := uint32(x)*0x9e3779b1 ^ uint32(y)*0x85ebca6b
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return h
}

// lattice returns the pseudo-random value in [0,1] at lattice point (x, y).
func lattice(x, y int, period int) float64 {
	if period > 0 {
		x = (x%period + period) % period
	}
	return float64(Hash2(int32(x), int32(y))) / float64(math.MaxUint32)
}

// smooth is the cubic smoothstep interpolant.
func smooth(t float64) float64 { return t * t * (3 - 2*t) }

// Value samples 2-D value noise in [0,1]. When period > 0 the lattice repeats
// every period units along x, so a field sampled over [0, period) tiles.
func Value(x, y float64, period int) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix, iy := int(x0), int(y0)
	tx := smooth(x - x0)
	ty := smooth(y - y0)

	v00 := lattice(ix, iy, period)
	v10 := lattice(ix+1, iy, period)
	v01 := lattice(ix, iy+1, period)
	v11 := lattice(ix+1, iy+1, period)

	a := v00 + (v10-v00)*tx
	b := v01 + (v11-v01)*tx
	return a + (b-a)*ty
}

// Fractal sums octaves of value noise with amplitude scaled by persistence
// and frequency doubling per octave. The result is normalised to [0,1].
func Fractal(x, y float64, octaves int, persistence float64, period int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	freq := 1.0
	p := period

	for i := 0; i < octaves; i++ {
		total += Value(x*freq, y*freq, p) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		freq *= 2
		if p > 0 {
			p *= 2
		}
	}

	return total / maxVal
}
