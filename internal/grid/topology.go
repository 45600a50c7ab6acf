// Package grid provides the planet grid topology and the distance field engine.
// The grid wraps horizontally and clamps vertically: a half-open cylinder,
// not a torus. Cells are stored row-major and identified by linear index.
package grid

import (
	"fmt"
	"math"
	"slices"
)

// Topology describes a W×H cylinder grid.
type Topology struct {
	W, H int
}

// New returns the topology for a w×h grid.
func New(w, h int) Topology {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("grid: invalid size %dx%d", w, h))
	}
	return Topology{W: w, H: h}
}

// Size returns the total cell count.
func (t Topology) Size() int { return t.W * t.H }

// Index returns the linear index of an in-range cell.
func (t Topology) Index(x, y int) int { return y*t.W + x }

// Coord returns the (x, y) position of a linear index.
func (t Topology) Coord(i int) (int, int) { return i % t.W, i / t.W }

// Wrap wraps x modulo W. ok is false when y lies outside [0, H).
func (t Topology) Wrap(x, y int) (wx, wy int, ok bool) {
	if y < 0 || y >= t.H {
		return 0, 0, false
	}
	return (x%t.W + t.W) % t.W, y, true
}

// WrapIndex is Wrap followed by Index. Returns -1 when invalid.
func (t Topology) WrapIndex(x, y int) int {
	wx, wy, ok := t.Wrap(x, y)
	if !ok {
		return -1
	}
	return t.Index(wx, wy)
}

// wrapDX returns the shortest horizontal delta from ax to bx.
func (t Topology) wrapDX(ax, bx float64) float64 {
	w := float64(t.W)
	dx := bx - ax
	dx = math.Mod(dx, w)
	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	return dx
}

// Distance is the Euclidean distance using the wrapped horizontal delta and
// the unwrapped vertical delta.
func (t Topology) Distance(ax, ay, bx, by float64) float64 {
	dx := t.wrapDX(ax, bx)
	dy := by - ay
	return math.Hypot(dx, dy)
}

// Direction returns the shortest-path offset from a to b, picking between the
// unwrapped and the horizontally wrapped candidate.
func (t Topology) Direction(ax, ay, bx, by float64) (dx, dy float64) {
	w := float64(t.W)
	dy = by - ay
	dx = bx - ax
	for _, c := range [2]float64{bx - ax - w, bx - ax + w} {
		if math.Abs(c) < math.Abs(dx) {
			dx = c
		}
	}
	return dx, dy
}

// offsets8 lists the Moore neighborhood in a fixed order; the first four
// entries are the von Neumann neighborhood.
var offsets8 = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

// Neighbors4 appends the valid orthogonal neighbors of i to dst.
func (t Topology) Neighbors4(dst []int, i int) []int {
	return t.neighbors(dst, i, 4)
}

// Neighbors8 appends the valid Moore neighbors of i to dst.
func (t Topology) Neighbors8(dst []int, i int) []int {
	return t.neighbors(dst, i, 8)
}

// neighbors skips repeats: on grids narrower than three columns the wrapped
// +1 and -1 offsets reach the same cell.
func (t Topology) neighbors(dst []int, i, n int) []int {
	x, y := t.Coord(i)
	start := len(dst)
	for _, o := range offsets8[:n] {
		j := t.WrapIndex(x+o[0], y+o[1])
		if j < 0 || j == i || slices.Contains(dst[start:], j) {
			continue
		}
		dst = append(dst, j)
	}
	return dst
}

// Step is the offset between two adjacent cells, honoring the x wrap.
func (t Topology) Step(from, to int) (dx, dy int) {
	fx, fy := t.Coord(from)
	tx, ty := t.Coord(to)
	dx = tx - fx
	if dx > 1 {
		dx -= t.W
	} else if dx < -1 {
		dx += t.W
	}
	return dx, ty - fy
}

// DistanceFromPole returns how many rows separate row y from the nearer pole.
func (t Topology) DistanceFromPole(y int) int {
	if d := t.H - 1 - y; d < y {
		return d
	}
	return y
}
