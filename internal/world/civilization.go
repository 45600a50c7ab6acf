package world

import (
	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/seed"
)

// FeatureKind enumerates the civilization and pollution overlays.
type FeatureKind uint8

const (
	FeatureBryophyte FeatureKind = iota
	FeatureCultivated
	FeatureCity
	FeaturePolluted
	FeatureSeaCultivated
	FeatureSeaCity
	FeatureSeaPolluted
	numFeatureKinds
)

var featureNames = [numFeatureKinds]string{
	"bryophyte", "cultivated", "city", "polluted",
	"sea_cultivated", "sea_city", "sea_polluted",
}

func (k FeatureKind) String() string {
	if k < numFeatureKinds {
		return featureNames[k]
	}
	return "unknown"
}

func (k FeatureKind) atSea() bool { return k >= FeatureSeaCultivated }

// overlays reports whether k may grow over cells claimed by other kinds.
// Pollution spreads over the settlements that cause it.
func (k FeatureKind) overlays() bool {
	return k == FeaturePolluted || k == FeatureSeaPolluted
}

// featureSizeMean is the Poisson mean cluster size per kind.
var featureSizeMean = [numFeatureKinds]float64{8, 6, 3, 4, 3, 3, 3}

const (
	coastalWeight  = 8.0  // Start-cell bonus for coastal cities and fields
	sourceWeight   = 10.0 // Start-cell bonus for pollution next to settlements
	seaShoreWeight = 5.0  // Start-cell bonus for sea features next to land
	featureAccept  = 0.6
	defaultDensity = 120.0
)

// featureProb returns the configured probability for kind k.
func (c GenConfig) featureProb(k FeatureKind) float64 {
	switch k {
	case FeatureBryophyte:
		return c.BryophyteProb
	case FeatureCultivated:
		return c.CultivatedProb
	case FeatureCity:
		return c.CityProb
	case FeaturePolluted:
		return c.PollutedProb
	case FeatureSeaCultivated:
		return c.SeaCultivatedProb
	case FeatureSeaCity:
		return c.SeaCityProb
	case FeatureSeaPolluted:
		return c.SeaPollutedProb
	}
	return 0
}

// CivInput is what the civilization growers read.
type CivInput struct {
	Topo     grid.Topology
	Land     []bool
	Subtypes []Subtype // Base terrain after relief and tundra, before ice
	Ice      []bool
	Era      Era
}

// CivMasks holds one output mask per feature kind. Masks are written only
// by their own grower and merged at assembly.
type CivMasks struct {
	ByKind   [numFeatureKinds][]bool
	Clusters []Cluster
}

// Has reports whether cell i carries feature k.
func (m *CivMasks) Has(k FeatureKind, i int) bool {
	return m.ByKind[k] != nil && m.ByKind[k][i]
}

// claimed reports whether any kind other than k already holds cell i.
func (m *CivMasks) claimed(k FeatureKind, i int) bool {
	for o := FeatureKind(0); o < numFeatureKinds; o++ {
		if o != k && o.atSea() == k.atSea() && m.Has(o, i) {
			return true
		}
	}
	return false
}

// siteSuitable decides which base terrain each kind can settle.
func siteSuitable(k FeatureKind, sub Subtype) bool {
	switch k {
	case FeatureBryophyte:
		return sub == SubLowland || sub == SubTundra || sub == SubHighland || sub == SubAlpine
	case FeatureCultivated:
		return sub == SubLowland || sub == SubHighland
	case FeatureCity:
		return sub == SubLowland || sub == SubHighland || sub == SubDesert
	case FeaturePolluted:
		return sub != SubLake && !sub.IsSea()
	default:
		return sub == SubShallow
	}
}

// GrowCivilization grows every feature kind the era allows. Counts are
// Poisson with mean prob·landCells/FeatureDensity; start cells are weighted
// toward coasts (settlements) or existing settlements (pollution).
func GrowCivilization(in CivInput, cfg GenConfig, streams *seed.Factory) CivMasks {
	n := in.Topo.Size()
	mustSize("civilization land mask", len(in.Land), n)
	mustSize("civilization subtypes", len(in.Subtypes), n)
	mustSize("civilization ice mask", len(in.Ice), n)

	var masks CivMasks
	landCells := 0
	for _, l := range in.Land {
		if l {
			landCells++
		}
	}
	density := cfg.FeatureDensity
	if density <= 0 {
		density = defaultDensity
	}

	nbrs := make([]int, 0, 8)
	// neighborhood returns (sea neighbors, land neighbors) of i.
	neighborhood := func(i int) (sea, land int) {
		nbrs = in.Topo.Neighbors8(nbrs[:0], i)
		for _, j := range nbrs {
			if in.Land[j] {
				land++
			} else {
				sea++
			}
		}
		return sea, land
	}
	nearSettlement := func(i int, city, fields FeatureKind) bool {
		if masks.Has(city, i) || masks.Has(fields, i) {
			return true
		}
		nbrs = in.Topo.Neighbors8(nbrs[:0], i)
		for _, j := range nbrs {
			if masks.Has(city, j) || masks.Has(fields, j) {
				return true
			}
		}
		return false
	}

	for k := FeatureKind(0); k < numFeatureKinds; k++ {
		prob := cfg.featureProb(k)
		if !in.Era.allows(k) || prob <= 0 {
			continue
		}
		mask := make([]bool, n)
		masks.ByKind[k] = mask

		eligible := func(i int) bool {
			if mask[i] || in.Ice[i] || in.Land[i] == k.atSea() {
				return false
			}
			if !siteSuitable(k, in.Subtypes[i]) {
				return false
			}
			return k.overlays() || !masks.claimed(k, i)
		}
		weight := func(i int) float64 {
			sea, land := neighborhood(i)
			switch k {
			case FeatureCity, FeatureCultivated:
				if land == 0 {
					return 0 // single-cell islands never host settlements
				}
				if sea > 0 {
					return coastalWeight
				}
			case FeatureBryophyte:
				if land == 0 {
					return 0
				}
			case FeaturePolluted:
				if land == 0 {
					return 0
				}
				if nearSettlement(i, FeatureCity, FeatureCultivated) {
					return sourceWeight
				}
			case FeatureSeaPolluted:
				if nearSettlement(i, FeatureSeaCity, FeatureSeaCultivated) || nearSettlement(i, FeatureCity, FeatureCity) {
					return sourceWeight
				}
				if land > 0 {
					return seaShoreWeight
				}
			default:
				if land > 0 {
					return seaShoreWeight
				}
			}
			return 1
		}

		count := streams.Must("civ", k.String()).Poisson(prob * float64(landCells) / density)
		for c := 0; c < count; c++ {
			s := streams.Must("civ-cluster", k.String(), c)
			start := pickWeighted(collect(n, eligible), weight, s)
			if start < 0 {
				break
			}
			target := s.Poisson(featureSizeMean[k]) + 1
			cells := growCluster(in.Topo, start, growParams{
				Target:   target,
				Eligible: eligible,
				Accept:   constAccept(featureAccept),
			}, s)
			for _, cell := range cells {
				mask[cell] = true
			}
			masks.Clusters = append(masks.Clusters, Cluster{Kind: k.String(), Target: target, Cells: cells})
		}
	}
	return masks
}
