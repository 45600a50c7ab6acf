package world

import (
	"sort"

	"github.com/talgya/mini-planet/internal/grid"
	"github.com/talgya/mini-planet/internal/seed"
)

// Land mask refinement knobs.
const (
	expansionBand     = 0.05 // Score band below threshold that dilates with 3 neighbors
	maxDilationPasses = 6
	islandPruneChance = 0.7
	jitterBand        = 0.03
	jitterChance      = 0.15
)

// LandThreshold returns the score at which the land fraction of the grid
// matches ratio.
func LandThreshold(scores []float64, ratio float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	k := int(float64(len(sorted)) * (1 - ratio))
	k = clamp(k, 0, len(sorted)-1)
	return sorted[k]
}

// ThresholdMask marks land every cell scoring at or above threshold.
func ThresholdMask(scores []float64, threshold float64) []bool {
	mask := make([]bool, len(scores))
	for i, s := range scores {
		mask[i] = s >= threshold
	}
	return mask
}

// landNeighbors counts land cells in the Moore neighborhood of i.
func landNeighbors(topo grid.Topology, mask []bool, i int, buf []int) (int, []int) {
	buf = topo.Neighbors8(buf[:0], i)
	n := 0
	for _, j := range buf {
		if mask[j] {
			n++
		}
	}
	return n, buf
}

// Dilate grows the mask: a sea cell turns to land with four land neighbors,
// or three when its own score sits just below the threshold. Updates are
// synchronous per pass. Returns the number of passes that changed anything.
func Dilate(topo grid.Topology, mask []bool, scores []float64, threshold float64) int {
	mustSize("dilation", len(mask), topo.Size())
	next := make([]bool, len(mask))
	buf := make([]int, 0, 8)
	passes := 0
	for pass := 0; pass < maxDilationPasses; pass++ {
		changed := false
		copy(next, mask)
		for i, land := range mask {
			if land {
				continue
			}
			var n int
			n, buf = landNeighbors(topo, mask, i, buf)
			need := 4
			if scores[i] >= threshold-expansionBand {
				need = 3
			}
			if n >= need {
				next[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
		copy(mask, next)
		passes++
	}
	return passes
}

// PruneIslands reverts isolated single land cells to sea with a fixed
// probability. Each cell has its own stream so the same seed always prunes
// the same islands. Returns how many cells were pruned.
func PruneIslands(topo grid.Topology, mask []bool, streams *seed.Factory) int {
	mustSize("island pruning", len(mask), topo.Size())
	buf := make([]int, 0, 8)
	pruned := 0
	for i, land := range mask {
		if !land {
			continue
		}
		var n int
		n, buf = landNeighbors(topo, mask, i, buf)
		if n > 0 {
			continue
		}
		if streams.Must("island-prune", i).Chance(islandPruneChance) {
			mask[i] = false
			pruned++
		}
	}
	return pruned
}

// JitterCoast flips cells near the threshold that border a cell of the other
// kind. Decisions read a snapshot so the result does not depend on scan order.
func JitterCoast(topo grid.Topology, mask []bool, scores []float64, threshold float64, streams *seed.Factory) int {
	mustSize("coast jitter", len(mask), topo.Size())
	snapshot := append([]bool(nil), mask...)
	buf := make([]int, 0, 4)
	flipped := 0
	for i, land := range snapshot {
		if d := scores[i] - threshold; d > jitterBand || d < -jitterBand {
			continue
		}
		buf = topo.Neighbors4(buf[:0], i)
		differs := false
		for _, j := range buf {
			if snapshot[j] != land {
				differs = true
				break
			}
		}
		if !differs {
			continue
		}
		if streams.Must("coast-jitter", i).Chance(jitterChance) {
			mask[i] = !land
			flipped++
		}
	}
	return flipped
}

// RefineStats summarises a RefineLandMask pass.
type RefineStats struct {
	Threshold      float64
	DilationPasses int
	Pruned         int
	Jittered       int
}

// RefineLandMask runs threshold, dilation, island pruning and coastline
// jitter in order and returns the final mask.
func RefineLandMask(topo grid.Topology, scores []float64, ratio float64, streams *seed.Factory) ([]bool, RefineStats) {
	mustSize("scoring", len(scores), topo.Size())
	var st RefineStats
	st.Threshold = LandThreshold(scores, ratio)
	mask := ThresholdMask(scores, st.Threshold)
	st.DilationPasses = Dilate(topo, mask, scores, st.Threshold)
	st.Pruned = PruneIslands(topo, mask, streams)
	st.Jittered = JitterCoast(topo, mask, scores, st.Threshold, streams)
	return mask, st
}
