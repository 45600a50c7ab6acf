package world

import (
	"log/slog"
	"math"

	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/noise"
	"github.com/talgya/mini-planet/internal/seed"
)

// placementAttempts bounds the rejection sampling per center.
const placementAttempts = 200

// warpPeriod is the number of value-noise lattice cells across the grid width.
const warpPeriod = 8

// edgeMargin is how many rows near each pole are closed to centers.
func edgeMargin(h int) int {
	return max(1, h/8)
}

// PlaceCenters places up to clamp(CentersY,1,10) centers by rejection
// sampling. A center that cannot satisfy the spacing constraint within the
// attempt budget is skipped.
func PlaceCenters(topo grid.Topology, cfg GenConfig, streams *seed.Factory) []Center {
	count := cfg.centerCount()
	margin := edgeMargin(topo.H)
	lo, hi := float64(margin), float64(topo.H-1-margin)
	if hi < lo {
		lo, hi = float64(topo.H)/2, float64(topo.H)/2
	}

	centers := make([]Center, 0, count)
	for i := 0; i < count; i++ {
		s := streams.Must("center", i)
		placed := false
		for a := 0; a < placementAttempts; a++ {
			x := s.Range(0, float64(topo.W))
			y := s.Range(lo, hi+1)
			if y > hi {
				y = hi
			}
			if centerTooClose(topo, x, y, centers, cfg.MinCenterDistance) {
				continue
			}
			centers = append(centers, newCenter(x, y, s))
			placed = true
			break
		}
		if !placed {
			slog.Debug("center not placed", "index", i, "placed", len(centers))
		}
	}
	return centers
}

func centerTooClose(topo grid.Topology, x, y float64, existing []Center, minDist float64) bool {
	for _, c := range existing {
		if topo.Distance(x, y, c.X, c.Y) < minDist {
			return true
		}
	}
	return false
}

// newCenter draws the shape parameters of a center at (x, y).
func newCenter(x, y float64, s *seed.Stream) Center {
	c := Center{
		X:                   x,
		Y:                   y,
		InfluenceMultiplier: s.Range(0.85, 1.15),
		DecayVariation:      s.Range(0.8, 1.2),
		DirectionAngle:      s.Angle(),
	}
	terms := 2 + s.IntN(3)
	c.ShapeHarmonics = make([]HarmonicTerm, terms)
	for k := range c.ShapeHarmonics {
		c.ShapeHarmonics[k] = HarmonicTerm{
			Frequency: float64(2 + s.IntN(4)),
			Phase:     s.Angle(),
			Amplitude: s.Range(0.06, 0.22),
		}
	}
	return c
}

// shape returns the radial scale of the center's silhouette in direction
// theta. Integer frequencies keep the profile continuous around the circle.
func (c Center) shape(theta float64) float64 {
	v := 1.0
	for _, h := range c.ShapeHarmonics {
		v += h.Amplitude * math.Sin(h.Frequency*(theta-c.DirectionAngle)+h.Phase)
	}
	return math.Max(v, 0.3)
}

// ScoreField is the continental influence of every cell and the index of
// the center that produced it (-1 when there are no centers).
type ScoreField struct {
	Score []float64
	Owner []int
	RMax  float64
}

// influenceRadius is the reference distance at which a center's falloff has
// decayed by exp(-decay).
func influenceRadius(topo grid.Topology, ratio float64, count int) float64 {
	area := float64(topo.Size()) * math.Max(ratio, 0.05)
	return math.Sqrt(area/(math.Pi*float64(max(count, 1)))) * 1.6
}

// ScoreCells computes the max-over-centers influence score of every cell.
func ScoreCells(topo grid.Topology, centers []Center, cfg GenConfig, streams *seed.Factory) ScoreField {
	n := topo.Size()
	field := ScoreField{
		Score: make([]float64, n),
		Owner: make([]int, n),
		RMax:  influenceRadius(topo, cfg.SeaLandRatio, len(centers)),
	}
	for i := range field.Owner {
		field.Owner[i] = -1
	}
	if len(centers) == 0 {
		return field
	}

	ws := streams.Must("warp")
	// Integer x shifts keep the periodic lattice seamless.
	ox, oy := float64(ws.IntN(warpPeriod)), ws.Range(0, 1000)
	angOffset := make([]float64, len(centers))
	for i := range angOffset {
		angOffset[i] = ws.Range(0, 1000)
	}

	latticeScale := float64(warpPeriod) / float64(topo.W)
	rMax := field.RMax
	for i := 0; i < n; i++ {
		x, y := topo.Coord(i)
		px, py := float64(x), float64(y)
		warpNoise := noise.Fractal(px*latticeScale+ox, py*latticeScale+oy, 4, 0.5, warpPeriod) - 0.5

		best, owner := math.Inf(-1), -1
		for ci, c := range centers {
			dx, dy := topo.Direction(c.X, c.Y, px, py)
			d := math.Hypot(dx, dy)
			theta := math.Atan2(dy, dx)

			angular := noise.Value(theta/(2*math.Pi)*6, angOffset[ci], 6) - 0.5
			warped := d/c.shape(theta) + cfg.NoiseAmplitude*rMax*(warpNoise+0.25*angular)
			warped = math.Max(warped, 0)

			ratio := warped / rMax
			falloff := math.Exp(-cfg.NoiseDecay * c.DecayVariation * ratio * ratio)
			bias := d / (0.35 * rMax)
			score := c.InfluenceMultiplier*falloff + cfg.CenterBias*math.Exp(-bias*bias)
			if score > best {
				best, owner = score, ci
			}
		}
		field.Score[i] = best
		field.Owner[i] = owner
	}
	return field
}
