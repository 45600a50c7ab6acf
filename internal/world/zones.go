package world

import (
	"math"

	"github.com/talgya/mini-planet/internal/grid"
)

// Latitude bands from pole to pole, temperature zones and green-index
// categories of the aridity lookup table.
const (
	LatitudeBands = 10
	TempZones     = 8
	GICategories  = 10
)

// bandBase is the distance-to-sea (cells) a land cell may sit inland before
// turning to desert, at mid green index and temperate temperature. The
// subtropical bands are the driest; the equatorial bands the wettest.
var bandBase = [LatitudeBands]float64{3, 6, 4, 2.5, 7, 7, 2.5, 4, 6, 3}

// bandThresholds is the precomputed temperature zone × GI category × band table.
var bandThresholds = buildBandThresholds()

func buildBandThresholds() (t [TempZones][GICategories][LatitudeBands]float64) {
	for z := 0; z < TempZones; z++ {
		tempFactor := 1.35 - 0.1*float64(z)
		for g := 0; g < GICategories; g++ {
			giFactor := 0.4 + 0.2*float64(g)
			for b := 0; b < LatitudeBands; b++ {
				t[z][g][b] = bandBase[b] * giFactor * tempFactor
			}
		}
	}
	return t
}

// TempZone maps a mean temperature (°C) to its table zone: 5 °C wide zones
// starting at -10 °C.
func TempZone(temp float64) int {
	return clamp(int(math.Floor((temp+10)/5)), 0, TempZones-1)
}

// GICategory maps a green index in [0,1] to its table category.
func GICategory(gi float64) int {
	return clamp(int(math.Floor(gi*GICategories)), 0, GICategories-1)
}

// BandThresholds returns the per-band desert thresholds for the given
// temperature and green index.
func BandThresholds(temp, gi float64) [LatitudeBands]float64 {
	return bandThresholds[TempZone(temp)][GICategory(gi)]
}

// LatitudeBand returns the band of row y.
func LatitudeBand(y, h int) int {
	return clamp(y*LatitudeBands/h, 0, LatitudeBands-1)
}

// ZoneInput is everything the zonal classifier reads.
type ZoneInput struct {
	Topo             grid.Topology
	Land             []bool
	DistToSea        []float64
	DistToLand       []float64
	Noise            []float64 // Per-cell noise in [-1,1]
	NoiseScale       float64
	BandThresholds   [LatitudeBands]float64
	ShallowThreshold float64
}

// ClassifyZones assigns the base subtype of every cell: lowland or desert on
// land, shallow or deep at sea. It is a pure function of its input.
func ClassifyZones(in ZoneInput) []Subtype {
	n := in.Topo.Size()
	mustSize("zone land mask", len(in.Land), n)
	mustSize("distance to sea", len(in.DistToSea), n)
	mustSize("distance to land", len(in.DistToLand), n)
	mustSize("zone noise", len(in.Noise), n)

	out := make([]Subtype, n)
	for i := 0; i < n; i++ {
		nz := in.Noise[i] * in.NoiseScale
		if in.Land[i] {
			_, y := in.Topo.Coord(i)
			limit := in.BandThresholds[LatitudeBand(y, in.Topo.H)] + nz
			if in.DistToSea[i] <= limit {
				out[i] = SubLowland
			} else {
				out[i] = SubDesert
			}
			continue
		}
		if in.DistToLand[i] <= in.ShallowThreshold+nz*0.5 {
			out[i] = SubShallow
		} else {
			out[i] = SubDeep
		}
	}
	return out
}
