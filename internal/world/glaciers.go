package world

import (
	"math"

	"github.com/talgya/mini-planet/internal/grid"
)

// glacierAnchor maps a mean temperature to the fraction of each hemisphere
// (pole to equator) covered by land ice.
type glacierAnchor struct {
	Temp     float64
	Fraction float64
}

var glacierAnchors = []glacierAnchor{
	{-20, 0.42},
	{-10, 0.32},
	{0, 0.22},
	{10, 0.13},
	{15, 0.09},
	{20, 0.06},
	{30, 0.02},
	{40, 0},
}

const (
	seaIceFactor = 0.6 // Sea ice reaches this fraction of the land ice rows
	glacierAlpha = 0.2 // EMA weight of the newest target
)

// glacierCategoryRows lets ice reach further over high ground.
var glacierCategoryRows = map[Subtype]float64{
	SubAlpine:   3,
	SubHighland: 2,
	SubDesert:   -1,
}

// GlacierRows returns the land-ice rows from each pole for temperature temp
// on a grid of height h, interpolated piecewise-linearly between anchors.
func GlacierRows(temp float64, h int) float64 {
	half := float64(h) / 2
	if temp <= glacierAnchors[0].Temp {
		return glacierAnchors[0].Fraction * half
	}
	for i := 1; i < len(glacierAnchors); i++ {
		a, b := glacierAnchors[i-1], glacierAnchors[i]
		if temp <= b.Temp {
			t := (temp - a.Temp) / (b.Temp - a.Temp)
			return lerp(a.Fraction, b.Fraction, t) * half
		}
	}
	return glacierAnchors[len(glacierAnchors)-1].Fraction * half
}

// rowSmoother is an exponential moving average of glacier rows. It keeps
// separate state per surface so land ice and sea ice settle independently.
type rowSmoother struct {
	value  float64
	primed bool
}

// next folds target into the average. snap discards history.
func (r *rowSmoother) next(target float64, snap bool) float64 {
	if snap || !r.primed {
		r.value = target
		r.primed = true
		return r.value
	}
	r.value += glacierAlpha * (target - r.value)
	return r.value
}

// IceInput is what the glacier and tundra overlays read.
type IceInput struct {
	Topo      grid.Topology
	Land      []bool
	Subtypes  []Subtype // Base terrain before ice
	Noise     []float64 // Per-cell noise in [-1,1]
	LandRows  float64
	WaterRows float64
}

// ApplyGlaciers returns the ice mask: land cells within the land rows
// (adjusted by terrain) of a pole, and sea cells within the water rows.
func ApplyGlaciers(in IceInput) []bool {
	n := in.Topo.Size()
	mustSize("glacier land mask", len(in.Land), n)
	mustSize("glacier subtypes", len(in.Subtypes), n)
	mustSize("glacier noise", len(in.Noise), n)
	ice := make([]bool, n)
	for i := 0; i < n; i++ {
		_, y := in.Topo.Coord(i)
		fromPole := float64(in.Topo.DistanceFromPole(y))
		var rows float64
		if in.Land[i] {
			if in.LandRows <= 0 {
				continue
			}
			rows = in.LandRows + glacierCategoryRows[in.Subtypes[i]]
		} else {
			if in.WaterRows <= 0 {
				continue
			}
			rows = in.WaterRows
		}
		if fromPole < rows+in.Noise[i] {
			ice[i] = true
		}
	}
	return ice
}

// ApplyTundra marks ice-free land (lakes excluded) within tundraRows beyond
// the glacier edge.
func ApplyTundra(in IceInput, ice []bool, tundraRows int) []bool {
	n := in.Topo.Size()
	mustSize("tundra ice mask", len(ice), n)
	tundra := make([]bool, n)
	if tundraRows <= 0 {
		return tundra
	}
	edge := math.Max(in.LandRows, 0) + float64(tundraRows)
	for i := 0; i < n; i++ {
		if !in.Land[i] || ice[i] || in.Subtypes[i] == SubLake {
			continue
		}
		_, y := in.Topo.Coord(i)
		if float64(in.Topo.DistanceFromPole(y)) < edge+in.Noise[i]*2 {
			tundra[i] = true
		}
	}
	return tundra
}
