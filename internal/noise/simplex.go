package noise

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// SimplexTable samples a w×h table of simplex noise in [-1, 1] with the
// given feature scale (cells per noise unit). The grid is mapped onto a
// cylinder in 3-D so the table is continuous across the x seam.
func SimplexTable(w, h int, seed int64, scale float64) []float64 {
	if scale <= 0 {
		scale = 1
	}
	n := opensimplex.New(seed)
	radius := float64(w) / (2 * math.Pi * scale)
	out := make([]float64, w*h)

	for y := 0; y < h; y++ {
		fy := float64(y) / scale
		for x := 0; x < w; x++ {
			theta := 2 * math.Pi * float64(x) / float64(w)
			out[y*w+x] = n.Eval3(math.Cos(theta)*radius, math.Sin(theta)*radius, fy)
		}
	}
	return out
}

// OctaveTable is SimplexTable with several octaves layered the way the
// terrain noise always has been: halving amplitude, doubling frequency.
func OctaveTable(w, h int, seed int64, scale float64, octaves int, persistence float64) []float64 {
	if octaves < 1 {
		octaves = 1
	}
	out := make([]float64, w*h)
	amplitude := 1.0
	maxVal := 0.0
	for o := 0; o < octaves; o++ {
		layer := SimplexTable(w, h, seed+int64(o), scale)
		for i, v := range layer {
			out[i] += v * amplitude
		}
		maxVal += amplitude
		amplitude *= persistence
		scale /= 2
	}
	for i := range out {
		out[i] /= maxVal
	}
	return out
}
