package world

import "github.com/talgya/mini-planet/internal/grid"

// HighFrequencyCache holds the structural layers of the last GENERATE or
// DRIFT run so UPDATE and REVISE can re-run only the climate-driven stages.
// It is owned by a Generator and never shared.
type HighFrequencyCache struct {
	Fingerprint string
	Topo        grid.Topology

	Centers    []Center
	Scores     ScoreField
	Land       []bool
	Refine     RefineStats
	DistToSea  []float64
	DistToLand []float64

	Lake      []bool
	Highland  []bool
	Alpine    []bool
	Clusters  []Cluster // Lakes and highlands
	ZoneNoise []float64
	IceNoise  []float64
	Palette   Palette

	Civ CivMasks // From the last GENERATE, DRIFT or UPDATE
}

// matches reports whether the cache was built for fingerprint fp.
func (c *HighFrequencyCache) matches(fp string) bool {
	return c != nil && c.Fingerprint == fp
}

// withoutIce returns a copy of m with every cell under ice cleared, so
// reused settlements never sit on a glacier that has since advanced.
func (m CivMasks) withoutIce(ice []bool) CivMasks {
	out := CivMasks{Clusters: m.Clusters}
	for k, mask := range m.ByKind {
		if mask == nil {
			continue
		}
		cp := make([]bool, len(mask))
		for i, v := range mask {
			cp[i] = v && !ice[i]
		}
		out.ByKind[k] = cp
	}
	return out
}
