package world

import (
	"math"

	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/seed"
)

const (
	driftAngleJitter = 0.2  // Radians of heading noise per epoch
	driftRateJitter  = 0.25 // Fractional speed noise per epoch
)

// DriftMetrics describe one continental drift step.
type DriftMetrics struct {
	Epoch            int     `json:"epoch"`
	MeanDisplacement float64 `json:"mean_displacement"`
	MaxDisplacement  float64 `json:"max_displacement"`
	LandChanged      int     `json:"land_changed"`
	LandRatioBefore  float64 `json:"land_ratio_before"`
	LandRatioAfter   float64 `json:"land_ratio_after"`
}

// driftCenters moves every center rate cells along its heading. x wraps; y
// is held inside the polar margin and a center that hits it turns back.
func driftCenters(topo grid.Topology, centers []Center, rate float64, epoch int, streams *seed.Factory) ([]Center, DriftMetrics) {
	m := DriftMetrics{Epoch: epoch}
	margin := float64(edgeMargin(topo.H))
	lo, hi := margin, float64(topo.H-1)-margin
	if hi < lo {
		lo, hi = float64(topo.H)/2, float64(topo.H)/2
	}

	out := make([]Center, len(centers))
	for i, c := range centers {
		s := streams.Must("drift", epoch, i)
		heading := c.DirectionAngle + s.Range(-driftAngleJitter, driftAngleJitter)
		step := rate * (1 + s.Range(-driftRateJitter, driftRateJitter))

		nc := c
		nc.ShapeHarmonics = append([]HarmonicTerm(nil), c.ShapeHarmonics...)
		nc.X = math.Mod(c.X+math.Cos(heading)*step, float64(topo.W))
		if nc.X < 0 {
			nc.X += float64(topo.W)
		}
		nc.Y = c.Y + math.Sin(heading)*step
		nc.DirectionAngle = heading
		if nc.Y < lo || nc.Y > hi {
			nc.Y = clamp(nc.Y, lo, hi)
			nc.DirectionAngle = -heading
		}
		out[i] = nc

		d := topo.Distance(c.X, c.Y, nc.X, nc.Y)
		m.MeanDisplacement += d
		m.MaxDisplacement = math.Max(m.MaxDisplacement, d)
	}
	if len(out) > 0 {
		m.MeanDisplacement /= float64(len(out))
	}
	return out, m
}

// landDelta counts cells whose land state differs and returns the land
// ratio of each mask. before may be nil.
func landDelta(before, after []bool) (changed int, ratioBefore, ratioAfter float64) {
	ratio := func(m []bool) float64 {
		if len(m) == 0 {
			return 0
		}
		n := 0
		for _, l := range m {
			if l {
				n++
			}
		}
		return float64(n) / float64(len(m))
	}
	ratioAfter = ratio(after)
	if len(before) != len(after) {
		return 0, ratioAfter, ratioAfter
	}
	for i := range after {
		if before[i] != after[i] {
			changed++
		}
	}
	return changed, ratio(before), ratioAfter
}
